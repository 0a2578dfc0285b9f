package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
	OfferStatusExpired  OfferStatus = "expired"
)

// AdmissionOffer is one candidate hospital's pending decision on one request.
type AdmissionOffer struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RequestID   primitive.ObjectID `json:"request_id" bson:"request_id"`
	HospitalID  primitive.ObjectID `json:"hospital_id" bson:"hospital_id"`
	Round       int                `json:"round" bson:"round"`
	Status      OfferStatus        `json:"status" bson:"status"`
	ETAMinutes  int                `json:"eta_minutes" bson:"eta_minutes"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	ExpiresAt   time.Time          `json:"expires_at" bson:"expires_at"`
	RespondedAt *time.Time         `json:"responded_at,omitempty" bson:"responded_at,omitempty"`
}

func (o *AdmissionOffer) IsExpiredAt(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

func (o *AdmissionOffer) Clone() *AdmissionOffer {
	if o == nil {
		return nil
	}
	c := *o
	c.RespondedAt = cloneTime(o.RespondedAt)
	return &c
}
