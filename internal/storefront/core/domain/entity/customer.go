package entity

// DPILength is the length of a Guatemalan identity document number.
const DPILength = 13

// CustomerInfo is the buyer identification collected in the first checkout
// stage. Password is used only for the account lookup against the backend
// and is never persisted by this layer.
type CustomerInfo struct {
	Username      string `json:"username"`
	Password      string `json:"password,omitempty"`
	DPI           string `json:"dpi"`
	FinalConsumer bool   `json:"final_consumer"`
}

// Complete reports whether the info satisfies the checkout gate: a final
// consumer needs nothing, anyone else needs a username and a full DPI.
func (c CustomerInfo) Complete() bool {
	if c.FinalConsumer {
		return true
	}
	return c.Username != "" && len(c.DPI) == DPILength
}
