package changes

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrUnknownType indicates a change whose "type" names no variant.
var ErrUnknownType = errors.New("unknown change type")

// wireSet is the JSON layout of a ChangeSet.
type wireSet struct {
	Changes []json.RawMessage `json:"changes"`
}

// MarshalJSON renders the set as {"changes": [...]}.
func (cs ChangeSet) MarshalJSON() ([]byte, error) {
	out := wireSet{Changes: make([]json.RawMessage, 0, len(cs.Changes))}
	for i, c := range cs.Changes {
		raw, err := MarshalChange(c)
		if err != nil {
			return nil, fmt.Errorf("change %d: %w", i, err)
		}
		out.Changes = append(out.Changes, raw)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a set, failing on the first undecodable change.
func (cs *ChangeSet) UnmarshalJSON(data []byte) error {
	var in wireSet
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decoding change set: %w", err)
	}
	cs.Changes = make([]Change, 0, len(in.Changes))
	for i, raw := range in.Changes {
		c, err := UnmarshalChange(raw)
		if err != nil {
			return fmt.Errorf("change %d: %w", i, err)
		}
		cs.Changes = append(cs.Changes, c)
	}
	return nil
}

// MarshalChange encodes c as a JSON object carrying its "type".
func MarshalChange(c Change) ([]byte, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", c.Type(), err)
	}
	head, err := json.Marshal(c.Type())
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	b.WriteString(`{"type":`)
	b.Write(head)
	if rest := bytes.TrimSpace(body[1:]); !bytes.Equal(rest, []byte("}")) {
		b.WriteByte(',')
		b.Write(rest)
	} else {
		b.WriteByte('}')
	}
	return b.Bytes(), nil
}

// UnmarshalChange decodes one change object, dispatching on its "type".
func UnmarshalChange(data []byte) (Change, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decoding change: %w", err)
	}
	if head.Type == "" {
		return nil, fmt.Errorf("decoding change: missing type")
	}
	decode := decoderFor(head.Type)
	if decode == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, head.Type)
	}
	c, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", head.Type, err)
	}
	return c, nil
}

func decodeAs[T Change](data []byte) (Change, error) {
	var c T
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return c, nil
}

func decoderFor(typ string) func([]byte) (Change, error) {
	switch typ {
	case NewProject{}.Type():
		return decodeAs[NewProject]
	case AddProject{}.Type():
		return decodeAs[AddProject]
	case RemoveProject{}.Type():
		return decodeAs[RemoveProject]
	case MoveProject{}.Type():
		return decodeAs[MoveProject]
	case RefreshProject{}.Type():
		return decodeAs[RefreshProject]
	case UpdateProject{}.Type():
		return decodeAs[UpdateProject]
	case SelectProject{}.Type():
		return decodeAs[SelectProject]
	case AddWorkspace{}.Type():
		return decodeAs[AddWorkspace]
	case RemoveWorkspace{}.Type():
		return decodeAs[RemoveWorkspace]
	case MoveWorkspace{}.Type():
		return decodeAs[MoveWorkspace]
	case UpdateWorkspace{}.Type():
		return decodeAs[UpdateWorkspace]
	case AddCompiler{}.Type():
		return decodeAs[AddCompiler]
	case RemoveCompiler{}.Type():
		return decodeAs[RemoveCompiler]
	case UpdateCompiler{}.Type():
		return decodeAs[UpdateCompiler]
	case SetGroupProject{}.Type():
		return decodeAs[SetGroupProject]
	case RemoveGroupProject{}.Type():
		return decodeAs[RemoveGroupProject]
	case SetGroupProjectCompiler{}.Type():
		return decodeAs[SetGroupProjectCompiler]
	case RebalanceRanks{}.Type():
		return decodeAs[RebalanceRanks]
	}
	return nil
}
