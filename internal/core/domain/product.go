package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ProductID identifies a product. The API uses numeric ids; they are kept in
// their decimal string form so that "5" typed by a user matches 5 on the wire.
type ProductID string

// ParseProductID validates a user-supplied product id.
func ParseProductID(s string) (ProductID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrMissingArgument.WithDetails("product id")
	}
	if strings.ContainsAny(s, "/?#") {
		return "", ErrInvalidArgument.WithDetails("product id " + strconv.Quote(s))
	}
	return canonicalID(s), nil
}

// maxExactInt is the largest integer a JSON number holds exactly.
const maxExactInt = 1 << 53

// canonicalID rewrites numeric ids in the form the server echoes back, so
// "05" and "5.0" both become "5". Other ids are returned unchanged.
func canonicalID(s string) ProductID {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ProductID(strconv.FormatInt(n, 10))
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < maxExactInt {
		return ProductID(strconv.FormatInt(int64(f), 10))
	}
	return ProductID(s)
}

// String implements fmt.Stringer.
func (id ProductID) String() string {
	return string(id)
}

// Product is a catalog record. Its shape is owned by the remote API, so it is
// kept as the decoded JSON object; only "id" is interpreted.
type Product map[string]any

// ID returns the product id, or "" if the record has none.
func (p Product) ID() ProductID {
	if p == nil {
		return ""
	}
	switch v := p["id"].(type) {
	case json.Number:
		return canonicalID(v.String())
	case string:
		return ProductID(v)
	case float64:
		return ProductID(strconv.FormatFloat(v, 'f', -1, 64))
	case int:
		return ProductID(strconv.Itoa(v))
	case int64:
		return ProductID(strconv.FormatInt(v, 10))
	case nil:
		return ""
	default:
		return ProductID(fmt.Sprint(v))
	}
}

// Clone returns a copy of p; nested values are shared.
func (p Product) Clone() Product {
	if p == nil {
		return nil
	}
	c := make(Product, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Title returns the "title" field, if any.
func (p Product) Title() string {
	s, _ := p["title"].(string)
	return s
}

// Field renders a field for display; missing fields render as "-".
func (p Product) Field(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return "-"
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return "-"
		}
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		return fmt.Sprintf("[%d items]", len(t))
	case map[string]any:
		return fmt.Sprintf("{%d keys}", len(t))
	default:
		return fmt.Sprint(t)
	}
}

// ProductPayload is the body of a create or update request.
type ProductPayload map[string]any

// ParseFieldAssignments builds a payload from KEY=VALUE pairs. A value that
// parses as a JSON literal (number, bool, array, object, quoted string) is
// kept as such; anything else is sent as a plain string.
func ParseFieldAssignments(pairs []string) (ProductPayload, error) {
	payload := make(ProductPayload, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, ErrInvalidArgument.WithDetails(fmt.Sprintf("field %q: want KEY=VALUE", pair))
		}
		payload[key] = parseFieldValue(value)
	}
	return payload, nil
}

func parseFieldValue(raw string) any {
	var v any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err == nil && !dec.More() && v != nil {
		return v
	}
	return raw
}

// ParsePayloadJSON decodes a payload given as a JSON object.
func ParsePayloadJSON(raw string) (ProductPayload, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var payload ProductPayload
	if err := dec.Decode(&payload); err != nil {
		return nil, ErrInvalidPayload.WithDetails(err.Error()).WithCause(err)
	}
	if dec.More() {
		return nil, ErrInvalidPayload.WithDetails("trailing data after JSON object")
	}
	if payload == nil {
		return nil, ErrInvalidPayload.WithDetails("want a JSON object")
	}
	return payload, nil
}

// Merge returns a payload holding p's fields overlaid with other's.
func (p ProductPayload) Merge(other ProductPayload) ProductPayload {
	out := make(ProductPayload, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
