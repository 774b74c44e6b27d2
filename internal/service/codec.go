package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
)

// jsonCodec encodes plain Go structs as JSON. It replaces Connect's default
// "json" codec, which only accepts protobuf messages.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// WithJSON configures a handler or client to speak JSON over plain structs.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}

// MaxAmount bounds every stored money value. Amounts are kept to cents.
var MaxAmount = decimal.New(1, 16)

// Amount is a decimal value sent either as a JSON string ("100.50") or a
// JSON number (100.5).
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	switch {
	case string(b) == "null":
		*a = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
	default:
		*a = Amount(b)
	}
	return nil
}

// Decimal parses the amount and rounds it to cents. field names the value in
// error messages.
func (a Amount) Decimal(field string) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(a))
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid %s amount %q", ErrInvalidInput, field, s)
	}
	d = d.Round(2)
	if !fitsMoney(d) {
		return decimal.Zero, fmt.Errorf("%w: %s is out of range", ErrInvalidInput, field)
	}
	return d, nil
}

func fitsMoney(d decimal.Decimal) bool {
	return d.Abs().LessThan(MaxAmount)
}
