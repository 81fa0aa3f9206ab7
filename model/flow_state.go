package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type ResponseKind string

const RESPONSE_TEXT ResponseKind = "text"
const RESPONSE_CHOICE ResponseKind = "choice"
const RESPONSE_CHOICES ResponseKind = "choices"
const RESPONSE_ATTACHMENTS ResponseKind = "attachments"
const RESPONSE_ACKNOWLEDGED ResponseKind = "acknowledged"
const RESPONSE_SKIPPED ResponseKind = "skipped"

// SKIPPED_SENTINEL is what a skipped node records in flow state.
const SKIPPED_SENTINEL = "__skipped__"

// Response is a recorded node answer. On the wire it is a string, an array of
// strings, {"attachments": [...]}, null for an acknowledgement, or the skip sentinel.
type Response struct {
	Kind        ResponseKind
	Value       string
	Values      []string
	Attachments []Attachment
}

func TextResponse(v string) Response {
	return Response{Kind: RESPONSE_TEXT, Value: v}
}

func ChoiceResponse(v string) Response {
	return Response{Kind: RESPONSE_CHOICE, Value: v}
}

func ChoicesResponse(vs []string) Response {
	return Response{Kind: RESPONSE_CHOICES, Values: append([]string(nil), vs...)}
}

func AttachmentsResponse(atts []Attachment) Response {
	return Response{Kind: RESPONSE_ATTACHMENTS, Attachments: append([]Attachment(nil), atts...)}
}

func AcknowledgedResponse() Response {
	return Response{Kind: RESPONSE_ACKNOWLEDGED}
}

func SkippedResponse() Response {
	return Response{Kind: RESPONSE_SKIPPED}
}

func (r Response) IsSkipped() bool {
	return r.Kind == RESPONSE_SKIPPED
}

// Scalar returns the single discrete value of the response, used for rule keys.
func (r Response) Scalar() (string, bool) {
	switch r.Kind {
	case RESPONSE_TEXT, RESPONSE_CHOICE:
		return r.Value, true
	case RESPONSE_CHOICES:
		if len(r.Values) == 1 {
			return r.Values[0], true
		}
	}
	return "", false
}

type attachmentsEnvelope struct {
	Attachments []Attachment `json:"attachments"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case RESPONSE_TEXT, RESPONSE_CHOICE:
		return json.Marshal(r.Value)
	case RESPONSE_CHOICES:
		vs := r.Values
		if vs == nil {
			vs = []string{}
		}
		return json.Marshal(vs)
	case RESPONSE_ATTACHMENTS:
		atts := r.Attachments
		if atts == nil {
			atts = []Attachment{}
		}
		return json.Marshal(attachmentsEnvelope{Attachments: atts})
	case RESPONSE_SKIPPED:
		return json.Marshal(SKIPPED_SENTINEL)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON cannot tell a free-text answer from a single choice, both decode as text.
func (r *Response) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = AcknowledgedResponse()
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == SKIPPED_SENTINEL {
			*r = SkippedResponse()
		} else {
			*r = TextResponse(s)
		}
	case '[':
		var vs []string
		if err := json.Unmarshal(data, &vs); err != nil {
			return err
		}
		*r = ChoicesResponse(vs)
	case '{':
		var env attachmentsEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return err
		}
		*r = AttachmentsResponse(env.Attachments)
	default:
		return fmt.Errorf("unsupported response shape %s", string(data))
	}
	return nil
}

// FlowState maps node id to recorded response, remembering insertion order.
type FlowState struct {
	keys   []string
	values map[string]Response
}

func NewFlowState() *FlowState {
	return &FlowState{values: make(map[string]Response)}
}

func (fs *FlowState) Set(nodeId string, r Response) {
	if fs.values == nil {
		fs.values = make(map[string]Response)
	}
	if _, ok := fs.values[nodeId]; !ok {
		fs.keys = append(fs.keys, nodeId)
	}
	fs.values[nodeId] = r
}

func (fs *FlowState) Get(nodeId string) (Response, bool) {
	if fs == nil {
		return Response{}, false
	}
	r, ok := fs.values[nodeId]
	return r, ok
}

func (fs *FlowState) Keys() []string {
	if fs == nil {
		return nil
	}
	return append([]string(nil), fs.keys...)
}

func (fs *FlowState) Len() int {
	if fs == nil {
		return 0
	}
	return len(fs.keys)
}

func (fs *FlowState) Clone() *FlowState {
	c := NewFlowState()
	if fs == nil {
		return c
	}
	for _, k := range fs.keys {
		c.Set(k, fs.values[k])
	}
	return c
}

func (fs *FlowState) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if fs != nil {
		for i, k := range fs.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(fs.values[k])
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (fs *FlowState) UnmarshalJSON(data []byte) error {
	*fs = FlowState{values: make(map[string]Response)}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("flow state should be a json object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("flow state key should be a string")
		}
		var r Response
		if err := dec.Decode(&r); err != nil {
			return err
		}
		fs.Set(key, r)
	}
	_, err = dec.Token()
	return err
}
