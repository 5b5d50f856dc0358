package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneySetting is a stored scalar such as the monthly salary. Legacy records hold a bare number.
type MoneySetting struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type moneySettingJSON struct {
	Amount   flexDecimal `json:"amount"`
	Currency string      `json:"currency"`
}

// UnmarshalJSON accepts either a number (or numeric string) or an {amount, currency} object.
// The currency is left empty for the bare-number form.
func (m *MoneySetting) UnmarshalJSON(b []byte) error {
	*m = MoneySetting{}
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var w moneySettingJSON
		if err := json.Unmarshal(b, &w); err != nil {
			return err
		}
		m.Amount = w.Amount.Value
		m.Currency = strings.ToUpper(strings.TrimSpace(w.Currency))
		return nil
	}
	var f flexDecimal
	if err := f.UnmarshalJSON(b); err != nil {
		return err
	}
	m.Amount = f.Value
	return nil
}

func (m MoneySetting) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneySettingJSON{Amount: someDecimal(m.Amount), Currency: m.Currency})
}
