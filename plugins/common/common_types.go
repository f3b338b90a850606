// Package common contains shared data available for all integrations.
package common

// String defines simple string parameter type.
type String struct {
	Value string `json:"value" validate:"required"`
}
