package monitor

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

type State int

const (
	Idle State = iota
	Subscribing
	Listening
	ResolvingDetail
	Completed
	Failed
	Cancelled
)

var stateNames = map[State]string{
	Idle:            "IDLE",
	Subscribing:     "SUBSCRIBING",
	Listening:       "LISTENING",
	ResolvingDetail: "RESOLVING_DETAIL",
	Completed:       "COMPLETED",
	Failed:          "FAILED",
	Cancelled:       "CANCELLED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATE(%d)", int(s))
}

// Terminal reports whether no further transitions can happen from s.
func (s State) Terminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

func ParseState(name string) (State, error) {
	for state, n := range stateNames {
		if n == name {
			return state, nil
		}
	}
	return Idle, fmt.Errorf("unknown state %q", name)
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	state, err := ParseState(name)
	if err != nil {
		return err
	}
	*s = state
	return nil
}

func (s State) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(s.String())
}

func (s *State) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t != bsontype.String {
		return fmt.Errorf("cannot decode %s into State", t)
	}

	name, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("invalid bson string %x for State", data)
	}

	state, err := ParseState(name)
	if err != nil {
		return err
	}
	*s = state
	return nil
}
