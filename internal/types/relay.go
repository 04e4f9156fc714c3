package types

import (
	openapierrors "github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
)

const (
	patternHexAddress = `^0x[0-9a-fA-F]{40}$`
	patternHexData    = `^0x([0-9a-fA-F]{2})*$`
)

// PostSubmitTransactionPayload is the submit request body.
type PostSubmitTransactionPayload struct {
	ChainID              *int64  `json:"chainId"`
	Target               *string `json:"target"`
	Data                 *string `json:"data"`
	User                 *string `json:"user"`
	GasLimit             int64   `json:"gasLimit,omitempty"`
	GasPrice             string  `json:"gasPrice,omitempty"`
	MaxFeePerGas         string  `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas string  `json:"maxPriorityFeePerGas,omitempty"`
}

// Validate validates this payload.
func (m *PostSubmitTransactionPayload) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("chainId", "body", m.ChainID); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("target", "body", m.Target); err != nil {
		res = append(res, err)
	} else if err := validate.Pattern("target", "body", *m.Target, patternHexAddress); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("data", "body", m.Data); err != nil {
		res = append(res, err)
	} else if err := validate.Pattern("data", "body", *m.Data, patternHexData); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("user", "body", m.User); err != nil {
		res = append(res, err)
	} else if err := validate.Pattern("user", "body", *m.User, patternHexAddress); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return openapierrors.CompositeValidationError(res...)
	}
	return nil
}

// SubmitTransactionResponse is the submit response body. Success is reported
// in-band: a failed submission still returns the created task id.
type SubmitTransactionResponse struct {
	TaskID  *strfmt.UUID `json:"taskId"`
	Success *bool        `json:"success"`
	Message string       `json:"message,omitempty"`
}

// Validate validates this response.
func (m *SubmitTransactionResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("taskId", "body", m.TaskID); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("success", "body", m.Success); err != nil {
		res = append(res, err)
	}
	if m.TaskID != nil {
		if err := validate.FormatOf("taskId", "body", "uuid", m.TaskID.String(), formats); err != nil {
			res = append(res, err)
		}
	}

	if len(res) > 0 {
		return openapierrors.CompositeValidationError(res...)
	}
	return nil
}

// TaskStatusResponse is the status snapshot of one relay task.
type TaskStatusResponse struct {
	TaskID            *strfmt.UUID     `json:"taskId"`
	ChainID           *int64           `json:"chainId"`
	Status            *string          `json:"status"`
	TransactionHash   string           `json:"transactionHash,omitempty"`
	BlockNumber       int64            `json:"blockNumber,omitempty"`
	GasUsed           int64            `json:"gasUsed,omitempty"`
	EffectiveGasPrice string           `json:"effectiveGasPrice,omitempty"`
	Error             string           `json:"error,omitempty"`
	CreatedAt         *strfmt.DateTime `json:"createdAt"`
	UpdatedAt         *strfmt.DateTime `json:"updatedAt"`
}

// Validate validates this response.
func (m *TaskStatusResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("taskId", "body", m.TaskID); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("chainId", "body", m.ChainID); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("status", "body", m.Status); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("createdAt", "body", m.CreatedAt); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("updatedAt", "body", m.UpdatedAt); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return openapierrors.CompositeValidationError(res...)
	}
	return nil
}

// TaskListResponse is the per-user task listing.
type TaskListResponse struct {
	Tasks []*TaskStatusResponse `json:"tasks"`
}

// Validate validates this response.
func (m *TaskListResponse) Validate(formats strfmt.Registry) error {
	var res []error

	for _, task := range m.Tasks {
		if task == nil {
			continue
		}
		if err := task.Validate(formats); err != nil {
			res = append(res, err)
		}
	}

	if len(res) > 0 {
		return openapierrors.CompositeValidationError(res...)
	}
	return nil
}

// CancelTaskResponse is the cancel response body.
type CancelTaskResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message,omitempty"`
}

// Validate validates this response.
func (m *CancelTaskResponse) Validate(formats strfmt.Registry) error {
	if err := validate.Required("success", "body", m.Success); err != nil {
		return err
	}
	return nil
}

// GasPricesResponse carries the three gas price tiers in wei.
type GasPricesResponse struct {
	ChainID  *int64  `json:"chainId"`
	Slow     *string `json:"slow"`
	Standard *string `json:"standard"`
	Fast     *string `json:"fast"`
}

// Validate validates this response.
func (m *GasPricesResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("chainId", "body", m.ChainID); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("slow", "body", m.Slow); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("standard", "body", m.Standard); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("fast", "body", m.Fast); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return openapierrors.CompositeValidationError(res...)
	}
	return nil
}

// HealthComponents holds the per-component health booleans.
type HealthComponents struct {
	Wallet       *bool `json:"wallet"`
	GasEstimator *bool `json:"gasEstimator"`
	TaskTracker  *bool `json:"taskTracker"`
}

// Validate validates this component map.
func (m *HealthComponents) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("wallet", "body", m.Wallet); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("gasEstimator", "body", m.GasEstimator); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("taskTracker", "body", m.TaskTracker); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return openapierrors.CompositeValidationError(res...)
	}
	return nil
}

// GetHealthResponse is the aggregate health report.
type GetHealthResponse struct {
	Healthy         *bool             `json:"healthy"`
	Components      *HealthComponents `json:"components"`
	SupportedChains []int64           `json:"supportedChains"`
}

// Validate validates this response.
func (m *GetHealthResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("healthy", "body", m.Healthy); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("components", "body", m.Components); err != nil {
		res = append(res, err)
	} else if err := m.Components.Validate(formats); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return openapierrors.CompositeValidationError(res...)
	}
	return nil
}
