package tsserver

import (
	"encoding/json"

	"github.com/walteh/tshover/pkg/position"
	"github.com/walteh/tshover/pkg/quickinfo"
)

// request and message follow the tsserver protocol, not JSON-RPC.
type request struct {
	Seq       int64  `json:"seq"`
	Type      string `json:"type"`
	Command   string `json:"command"`
	Arguments any    `json:"arguments,omitempty"`
}

type message struct {
	Seq        int64           `json:"seq"`
	Type       string          `json:"type"`
	Command    string          `json:"command,omitempty"`
	Event      string          `json:"event,omitempty"`
	RequestSeq int64           `json:"request_seq,omitempty"`
	Success    bool            `json:"success,omitempty"`
	Message    string          `json:"message,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
}

type fileArgs struct {
	File string `json:"file"`
}

type openArgs struct {
	File        string `json:"file"`
	FileContent string `json:"fileContent"`
}

type positionArgs struct {
	File     string `json:"file"`
	Position int    `json:"position"`
}

type configureArgs struct {
	Preferences map[string]any `json:"preferences"`
}

type wireLocation struct {
	Line   int `json:"line"`
	Offset int `json:"offset"`
}

// wireTarget covers both the language service shape (fileName + textSpan)
// and the protocol shape (file + start/end) of a link target.
type wireTarget struct {
	FileName string        `json:"fileName,omitempty"`
	File     string        `json:"file,omitempty"`
	Start    *wireLocation `json:"start,omitempty"`
}

type wirePart struct {
	Text   string      `json:"text"`
	Kind   string      `json:"kind"`
	Target *wireTarget `json:"target,omitempty"`
}

// wireParts accepts either a plain string or a list of display parts, since
// tsserver flattens documentation to strings unless asked not to.
type wireParts []wirePart

func (me *wireParts) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*me = nil
		} else {
			*me = wireParts{{Text: s, Kind: "text"}}
		}
		return nil
	}

	var parts []wirePart
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	*me = parts
	return nil
}

type wireTag struct {
	Name string    `json:"name"`
	Text wireParts `json:"text,omitempty"`
}

type wireSpan struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

type wireQuickInfo struct {
	Kind          string    `json:"kind"`
	KindModifiers string    `json:"kindModifiers"`
	TextSpan      wireSpan  `json:"textSpan"`
	DisplayParts  wireParts `json:"displayParts"`
	Documentation wireParts `json:"documentation,omitempty"`
	Tags          []wireTag `json:"tags,omitempty"`
}

func (me wireParts) toParts() []quickinfo.DisplayPart {
	if me == nil {
		return nil
	}
	out := make([]quickinfo.DisplayPart, 0, len(me))
	for _, p := range me {
		out = append(out, quickinfo.DisplayPart{
			Text:   p.Text,
			Kind:   p.Kind,
			Target: p.Target.toTarget(),
		})
	}
	return out
}

func (me *wireTarget) toTarget() *quickinfo.LinkTarget {
	if me == nil {
		return nil
	}

	file := me.File
	if file == "" {
		file = me.FileName
	}
	if file == "" {
		return nil
	}

	target := &quickinfo.LinkTarget{File: file}
	if me.Start != nil {
		target.Start = &quickinfo.LineAndColumn{Line: me.Start.Line, Column: me.Start.Offset}
	}
	return target
}

func (me *wireQuickInfo) toQuickInfo() *quickinfo.QuickInfo {
	info := &quickinfo.QuickInfo{
		Kind:          me.Kind,
		KindModifiers: me.KindModifiers,
		DisplayParts:  me.DisplayParts.toParts(),
		Documentation: me.Documentation.toParts(),
		TextSpan: position.Span{
			Start:  position.Offset(me.TextSpan.Start),
			Length: me.TextSpan.Length,
		},
	}

	if me.Tags != nil {
		info.Tags = make([]quickinfo.Tag, 0, len(me.Tags))
		for _, t := range me.Tags {
			info.Tags = append(info.Tags, quickinfo.Tag{Name: t.Name, Text: t.Text.toParts()})
		}
	}

	return info
}
