package appErrors

import (
	"errors"
	"fmt"

	"github.com/oakline/mailcamp-backend/internal/model"
)

// ErrCampaignNotFound is returned for an unknown campaign id.
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrSendRecordNotFound is returned for an unknown send record id.
type ErrSendRecordNotFound struct {
	SendRecordID int
}

func (e *ErrSendRecordNotFound) Error() string {
	return fmt.Sprintf("send record with ID %d not found", e.SendRecordID)
}

func NewSendRecordNotFound(id int) error {
	return &ErrSendRecordNotFound{SendRecordID: id}
}

// ErrValidation rejects malformed campaign fields or filters before any
// state change.
type ErrValidation struct {
	Field  string
	Reason string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) error {
	return &ErrValidation{Field: field, Reason: reason}
}

// ErrInvalidStateTransition is returned when an operation is attempted from
// a campaign status that does not permit it.
type ErrInvalidStateTransition struct {
	CampaignID int
	From       model.CampaignStatus
	Operation  string
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("campaign %d: cannot %s while %s", e.CampaignID, e.Operation, e.From)
}

func NewInvalidStateTransition(id int, from model.CampaignStatus, op string) error {
	return &ErrInvalidStateTransition{CampaignID: id, From: from, Operation: op}
}

// ErrAlreadySending means the caller lost the race for the sending
// transition; someone else is handling the campaign, do not retry.
type ErrAlreadySending struct {
	CampaignID int
}

func (e *ErrAlreadySending) Error() string {
	return fmt.Sprintf("campaign %d is already being sent", e.CampaignID)
}

func NewAlreadySending(id int) error {
	return &ErrAlreadySending{CampaignID: id}
}

// ErrNoEligibleRecipients means segmentation produced zero matches. The
// campaign is left unchanged so the operator can adjust the filter.
type ErrNoEligibleRecipients struct {
	CampaignID int
}

func (e *ErrNoEligibleRecipients) Error() string {
	return fmt.Sprintf("campaign %d: segment filter matched no eligible subscribers", e.CampaignID)
}

func NewNoEligibleRecipients(id int) error {
	return &ErrNoEligibleRecipients{CampaignID: id}
}

// ErrPartialDelivery reports that the mailer failed for every recipient (or
// a subset, when raised by callers that choose to). The campaign still
// completes; the failed send records carry the detail.
type ErrPartialDelivery struct {
	CampaignID int
	Failed     int
	Total      int
}

func (e *ErrPartialDelivery) Error() string {
	return fmt.Sprintf("campaign %d: %d of %d deliveries failed", e.CampaignID, e.Failed, e.Total)
}

func NewPartialDelivery(id, failed, total int) error {
	return &ErrPartialDelivery{CampaignID: id, Failed: failed, Total: total}
}

// IsNotFound reports whether err is a campaign or send-record not-found
// error.
func IsNotFound(err error) bool {
	var c *ErrCampaignNotFound
	var s *ErrSendRecordNotFound
	return errors.As(err, &c) || errors.As(err, &s)
}
