package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ledgerflow/ledgerflow/internal/model"
)

// transactionInput is the on-disk shape the per-bank transformers emit.
type transactionInput struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Account     string  `json:"account"`
	Location    string  `json:"location"`
	RawRow      string  `json:"rawRow"`
	Checksum    string  `json:"checksum"`
	Amount      float64 `json:"amount"`
	Online      bool    `json:"online"`
}

// confirmedInput is a processed transaction the user has confirmed, with its
// entity resolution. Empty entity fields mean "no entity".
type confirmedInput struct {
	transactionInput
	EntityID   string `json:"entityId"`
	EntityName string `json:"entityName"`
	EntityURL  string `json:"entityUrl"`
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if date, err := time.Parse(layout, value); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func (in *transactionInput) toModel() (model.ParsedTransaction, error) {
	date, err := parseDate(in.Date)
	if err != nil {
		return model.ParsedTransaction{}, err
	}

	txn := model.ParsedTransaction{
		Date:        date,
		Description: in.Description,
		Account:     in.Account,
		Location:    in.Location,
		RawRow:      in.RawRow,
		Checksum:    in.Checksum,
		Amount:      in.Amount,
		Online:      in.Online,
	}
	txn.EnsureChecksum()

	return txn, nil
}

// loadParsedTransactions reads a JSON array of parsed transactions.
func loadParsedTransactions(path string) ([]model.ParsedTransaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var inputs []transactionInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	transactions := make([]model.ParsedTransaction, 0, len(inputs))
	for i := range inputs {
		txn, err := inputs[i].toModel()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		transactions = append(transactions, txn)
	}

	return transactions, nil
}

// loadConfirmedTransactions reads a JSON array of confirmed transactions.
func loadConfirmedTransactions(path string) ([]model.ConfirmedTransaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var inputs []confirmedInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	transactions := make([]model.ConfirmedTransaction, 0, len(inputs))
	for i := range inputs {
		txn, err := inputs[i].toModel()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		transactions = append(transactions, model.ConfirmedTransaction{
			Transaction: txn,
			EntityID:    inputs[i].EntityID,
			EntityName:  inputs[i].EntityName,
			EntityURL:   inputs[i].EntityURL,
		})
	}

	return transactions, nil
}
