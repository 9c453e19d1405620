package router

import (
	"strconv"

	"github.com/google/uuid"
)

// Attribute is one key/value pair of the structured log a successful
// operation returns to the host.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Transfer is an outbound transfer instruction. The core never moves value
// itself; the host hands these to the bank/ledger service.
type Transfer struct {
	ID        uuid.UUID `json:"id"`
	Recipient string    `json:"recipient"`
	Asset     string    `json:"asset"`
	Amount    int64     `json:"amount"`
}

// Response carries the observable side effects of one mutating call.
type Response struct {
	Attributes []Attribute `json:"attributes"`
	Transfers  []Transfer  `json:"transfers"`
}

func newResponse(method string) *Response {
	return &Response{
		Attributes: []Attribute{{Key: "method", Value: method}},
	}
}

func (r *Response) addAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

func (r *Response) addIntAttribute(key string, value int64) *Response {
	return r.addAttribute(key, strconv.FormatInt(value, 10))
}

func (r *Response) addTransfer(recipient, asset string, amount int64) *Response {
	r.Transfers = append(r.Transfers, Transfer{
		ID:        uuid.New(),
		Recipient: recipient,
		Asset:     asset,
		Amount:    amount,
	})
	return r
}

// Attribute returns the value for key, empty if absent.
func (r *Response) Attribute(key string) string {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}
