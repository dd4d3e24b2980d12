package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ariondjunior/tapajos/internal/domain"
	"github.com/ariondjunior/tapajos/internal/usecase"
)

var errMalformedRecord = errors.New("malformed remote record")

// page is the backend's paginated listing envelope.
type page struct {
	Content       []json.RawMessage `json:"content"`
	TotalPages    int               `json:"totalPages"`
	Number        int               `json:"number"`
	Size          int               `json:"size"`
	TotalElements int               `json:"totalElements"`
	Last          bool              `json:"last"`
}

// remoteID accepts numeric and string identifiers.
type remoteID string

func (id *remoteID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = remoteID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = remoteID(n.String())
	return nil
}

// bankDTO is a bank account as the backend lists it.
type bankDTO struct {
	ID      remoteID         `json:"id"`
	Name    string           `json:"nome"`
	Bank    string           `json:"banco"`
	Balance *decimal.Decimal `json:"saldo"`
}

// entityDTO is a counterparty as the backend lists it.
type entityDTO struct {
	ID   remoteID `json:"id"`
	Name string   `json:"nome"`
	Kind string   `json:"tipo"`
}

// parseBank validates one raw record. The display name falls back to the
// bank name when the account has no label of its own.
func parseBank(raw json.RawMessage) (usecase.RemoteBank, error) {
	var dto bankDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return usecase.RemoteBank{}, fmt.Errorf("%w: %v", errMalformedRecord, err)
	}

	if dto.ID == "" {
		return usecase.RemoteBank{}, fmt.Errorf("%w: missing id", errMalformedRecord)
	}

	name := strings.TrimSpace(dto.Name)
	if name == "" {
		name = strings.TrimSpace(dto.Bank)
	}
	if err := domain.ValidateName(name); err != nil {
		return usecase.RemoteBank{}, fmt.Errorf("%w: bank %s: %v", errMalformedRecord, dto.ID, err)
	}

	if dto.Balance == nil {
		return usecase.RemoteBank{}, fmt.Errorf("%w: bank %s: missing balance", errMalformedRecord, dto.ID)
	}
	if err := domain.ValidateBalance(*dto.Balance); err != nil {
		return usecase.RemoteBank{}, fmt.Errorf("%w: bank %s: %v", errMalformedRecord, dto.ID, err)
	}

	return usecase.RemoteBank{
		ExternalID: string(dto.ID),
		Name:       name,
		Balance:    domain.Round2(*dto.Balance),
	}, nil
}

// parseEntity validates one raw record.
func parseEntity(raw json.RawMessage) (usecase.RemoteEntity, error) {
	var dto entityDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return usecase.RemoteEntity{}, fmt.Errorf("%w: %v", errMalformedRecord, err)
	}

	if dto.ID == "" {
		return usecase.RemoteEntity{}, fmt.Errorf("%w: missing id", errMalformedRecord)
	}

	name := strings.TrimSpace(dto.Name)
	if err := domain.ValidateName(name); err != nil {
		return usecase.RemoteEntity{}, fmt.Errorf("%w: entity %s: %v", errMalformedRecord, dto.ID, err)
	}

	var isClient bool
	switch strings.ToUpper(strings.TrimSpace(dto.Kind)) {
	case "CLIENTE", "CLIENT":
		isClient = true
	case "FORNECEDOR", "SUPPLIER":
		isClient = false
	default:
		return usecase.RemoteEntity{}, fmt.Errorf("%w: entity %s: unknown kind %q", errMalformedRecord, dto.ID, dto.Kind)
	}

	return usecase.RemoteEntity{
		ExternalID: string(dto.ID),
		Name:       name,
		IsClient:   isClient,
	}, nil
}
