package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("resource not found")
	ErrTemplateNotFound = errors.New("email template not found")
)

// Dataset is the part of a catalogue package record the contact form needs.
type Dataset struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Title            string   `json:"title"`
	DataContactEmail string   `json:"data_contact_email"`
	Tags             []string `json:"tags"`
}

// DatasetRepository looks up datasets by id or URL name.
type DatasetRepository interface {
	GetByIDOrName(ctx context.Context, idOrName string) (*Dataset, error)
}
