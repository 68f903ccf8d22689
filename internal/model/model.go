// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// SubscriptionTTL is how far a subscribe or renew call pushes a subscriber's expiry.
const SubscriptionTTL = 30 * 24 * time.Hour

// ProjectID is the external project identifier, issued by the dapp registry.
// Opaque to this service; validated upstream.
type ProjectID string

func (p ProjectID) String() string { return string(p) }

// Topic identifies a publish/subscribe channel on the relay. Derived from key
// material by the key collaborator; opaque here.
type Topic string

func (t Topic) String() string { return string(t) }

// AccountID is a chain-agnostic account identifier (CAIP-10 style). Opaque to
// this service; validated upstream.
type AccountID string

func (a AccountID) String() string { return string(a) }

// Project is a notification publisher. Key material is fixed at first
// registration; only the app domain may change afterwards.
type Project struct {
	ID                       uuid.UUID // row id
	ProjectID                ProjectID // unique external id
	AppDomain                string    // unique
	Topic                    Topic
	AuthenticationPublicKey  string
	AuthenticationPrivateKey string
	SubscribePublicKey       string
	SubscribePrivateKey      string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// ProjectKeys carries the stored public keys returned by a project upsert.
// On repeated registration these are the keys of the first write, not the
// ones supplied with the call.
type ProjectKeys struct {
	AuthenticationPublicKey string
	SubscribePublicKey      string
}

// UpsertProject is the full input of a project registration upsert.
type UpsertProject struct {
	ProjectID                ProjectID
	AppDomain                string
	Topic                    Topic
	AuthenticationPublicKey  string
	AuthenticationPrivateKey string
	SubscribePublicKey       string
	SubscribePrivateKey      string
}

// Subscriber is one account's subscription to a project. Unique per
// (project, account).
type Subscriber struct {
	ID        uuid.UUID
	Project   uuid.UUID // project row id
	Account   AccountID
	SymKey    string // hex-encoded notify key
	Topic     Topic  // notify topic, derived from SymKey
	Expiry    time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SubscriberWithScope is a subscriber joined with its aggregated scope set.
type SubscriberWithScope struct {
	ID      uuid.UUID
	Project uuid.UUID
	Account AccountID
	SymKey  string
	Topic   Topic
	Scope   ScopeSet
	Expiry  time.Time
}

// SubscriberWithProject is a subscription as presented to a wallet: the
// project's app domain and authentication key alongside the subscription state.
type SubscriberWithProject struct {
	AppDomain               string
	AuthenticationPublicKey string
	Account                 AccountID
	SymKey                  string
	Scope                   ScopeSet
	Expiry                  time.Time
}

// AccountScopes pairs a subscriber account with its enabled notification types.
type AccountScopes struct {
	Account AccountID
	Scope   ScopeSet
}

// SubscriptionGrant is handed back by a successful subscribe: the notify key
// and the derived topic the wallet listens on.
type SubscriptionGrant struct {
	ID     uuid.UUID
	SymKey string
	Topic  Topic
}

// WatcherSession is an active subscription watcher as returned to a wallet:
// the project it covers (nil for all apps) and the session keys.
type WatcherSession struct {
	Project *uuid.UUID
	DidKey  string
	SymKey  string
}
