package dom

import (
	"encoding/json"
	"fmt"
)

// FactList is a fact slice that survives a JSON round-trip. Fact is an
// interface, so each element marshals wrapped in an envelope carrying its
// category; unmarshaling dispatches on that category back to the concrete
// type. Stored comparison reports depend on this.
type FactList []Fact

// factEnvelope wraps one fact with the discriminator needed to pick the
// concrete type on the way back in.
type factEnvelope struct {
	Category Category        `json:"category"`
	Fact     json.RawMessage `json:"fact"`
}

func (l FactList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("null"), nil
	}
	envs := make([]factEnvelope, 0, len(l))
	for _, f := range l {
		env, err := wrapFact(f)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	return json.Marshal(envs)
}

func (l *FactList) UnmarshalJSON(data []byte) error {
	var envs []factEnvelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return err
	}
	if envs == nil {
		*l = nil
		return nil
	}
	out := make(FactList, 0, len(envs))
	for _, env := range envs {
		f, err := unwrapFact(env)
		if err != nil {
			return err
		}
		out = append(out, f)
	}
	*l = out
	return nil
}

func wrapFact(f Fact) (factEnvelope, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return factEnvelope{}, err
	}
	return factEnvelope{Category: f.Category(), Fact: raw}, nil
}

func unwrapFact(env factEnvelope) (Fact, error) {
	var f Fact
	var err error
	switch env.Category {
	case CategoryScript:
		var v ScriptFact
		err = json.Unmarshal(env.Fact, &v)
		f = v
	case CategoryStyle:
		var v StyleFact
		err = json.Unmarshal(env.Fact, &v)
		f = v
	case CategoryImage:
		var v ImageFact
		err = json.Unmarshal(env.Fact, &v)
		f = v
	case CategoryLink:
		var v LinkFact
		err = json.Unmarshal(env.Fact, &v)
		f = v
	case CategoryMeta:
		var v MetaFact
		err = json.Unmarshal(env.Fact, &v)
		f = v
	case CategoryHeading:
		var v HeadingFact
		err = json.Unmarshal(env.Fact, &v)
		f = v
	default:
		return nil, fmt.Errorf("unknown fact category %q", env.Category)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s fact: %w", env.Category, err)
	}
	return f, nil
}

// MarshalJSON wraps both sides of the pair in category envelopes so the
// pair survives storage like FactList does.
func (p FactPair) MarshalJSON() ([]byte, error) {
	type wire struct {
		A *factEnvelope `json:"a"`
		B *factEnvelope `json:"b"`
	}
	var w wire
	if p.A != nil {
		env, err := wrapFact(p.A)
		if err != nil {
			return nil, err
		}
		w.A = &env
	}
	if p.B != nil {
		env, err := wrapFact(p.B)
		if err != nil {
			return nil, err
		}
		w.B = &env
	}
	return json.Marshal(w)
}

func (p *FactPair) UnmarshalJSON(data []byte) error {
	type wire struct {
		A *factEnvelope `json:"a"`
		B *factEnvelope `json:"b"`
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.A, p.B = nil, nil
	if w.A != nil {
		f, err := unwrapFact(*w.A)
		if err != nil {
			return err
		}
		p.A = f
	}
	if w.B != nil {
		f, err := unwrapFact(*w.B)
		if err != nil {
			return err
		}
		p.B = f
	}
	return nil
}
