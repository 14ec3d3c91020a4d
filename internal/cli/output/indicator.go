package output

import (
	"io"
	"sync"

	"github.com/yndnr/catdesk-go/internal/core/service"
)

var opMessages = map[string]string{
	service.OpFetchProducts: "Loading products",
	service.OpFetchProduct:  "Loading product",
	service.OpAddProduct:    "Adding product",
	service.OpUpdateProduct: "Updating product",
	service.OpDeleteProduct: "Deleting product",
}

// Indicator shows a spinner while catalog operations are in flight. A
// disabled indicator, used when stderr is not a terminal, does nothing.
type Indicator struct {
	mu       sync.Mutex
	spinner  *Spinner
	enabled  bool
	inFlight int
}

// NewIndicator creates an indicator drawing on w.
func NewIndicator(w io.Writer, enabled bool) *Indicator {
	return &Indicator{spinner: NewSpinner(w, ""), enabled: enabled}
}

// Begin starts or relabels the spinner for op.
func (ind *Indicator) Begin(op string) {
	if ind == nil || !ind.enabled {
		return
	}
	ind.mu.Lock()
	defer ind.mu.Unlock()
	ind.inFlight++
	ind.spinner.SetMessage(opMessage(op))
	ind.spinner.Start()
}

// End stops the spinner once the last operation in flight has finished. A
// failure leaves a one-line marker; the error itself is reported by the caller.
func (ind *Indicator) End(op string, err error) {
	if ind == nil || !ind.enabled {
		return
	}
	ind.mu.Lock()
	defer ind.mu.Unlock()
	if ind.inFlight > 0 {
		ind.inFlight--
	}
	if ind.inFlight > 0 {
		return
	}
	if err != nil {
		ind.spinner.Fail(opMessage(op) + " failed")
		return
	}
	ind.spinner.Stop()
}

func opMessage(op string) string {
	if msg, ok := opMessages[op]; ok {
		return msg
	}
	return "Working"
}

var _ service.Indicator = (*Indicator)(nil)
