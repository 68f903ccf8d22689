package httpserver

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/2019tarikul/notify-server/internal/model"
)

type registerProjectRequest struct {
	ProjectID string `json:"project_id" binding:"required"`
	AppDomain string `json:"app_domain" binding:"required"`
}

type projectKeysResponse struct {
	AuthenticationPublicKey string `json:"authentication_public_key"`
	SubscribePublicKey      string `json:"subscribe_public_key"`
}

// projectResponse exposes a project without its private key material.
type projectResponse struct {
	ProjectID               string    `json:"project_id"`
	AppDomain               string    `json:"app_domain"`
	Topic                   string    `json:"topic"`
	AuthenticationPublicKey string    `json:"authentication_public_key"`
	SubscribePublicKey      string    `json:"subscribe_public_key"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func toProjectResponse(p *model.Project) projectResponse {
	return projectResponse{
		ProjectID:               string(p.ProjectID),
		AppDomain:               p.AppDomain,
		Topic:                   string(p.Topic),
		AuthenticationPublicKey: p.AuthenticationPublicKey,
		SubscribePublicKey:      p.SubscribePublicKey,
		CreatedAt:               p.CreatedAt,
		UpdatedAt:               p.UpdatedAt,
	}
}

type subscribeRequest struct {
	ProjectID string   `json:"project_id" binding:"required"`
	Account   string   `json:"account" binding:"required"`
	Scope     []string `json:"scope"`
}

type subscriptionGrantResponse struct {
	ID     string `json:"id"`
	SymKey string `json:"sym_key"`
	Topic  string `json:"topic"`
}

type subscriberResponse struct {
	ID      string    `json:"id"`
	Account string    `json:"account"`
	SymKey  string    `json:"sym_key"`
	Topic   string    `json:"topic"`
	Expiry  time.Time `json:"expiry"`
}

func toSubscriberResponse(s *model.Subscriber) subscriberResponse {
	return subscriberResponse{
		ID:      s.ID.String(),
		Account: string(s.Account),
		SymKey:  s.SymKey,
		Topic:   string(s.Topic),
		Expiry:  s.Expiry,
	}
}

type subscriberWithScopeResponse struct {
	ID      string    `json:"id"`
	Account string    `json:"account"`
	SymKey  string    `json:"sym_key"`
	Topic   string    `json:"topic"`
	Scope   []string  `json:"scope"`
	Expiry  time.Time `json:"expiry"`
}

func toSubscriberWithScopeResponse(s model.SubscriberWithScope) subscriberWithScopeResponse {
	return subscriberWithScopeResponse{
		ID:      s.ID.String(),
		Account: string(s.Account),
		SymKey:  s.SymKey,
		Topic:   string(s.Topic),
		Scope:   s.Scope.Strings(),
		Expiry:  s.Expiry,
	}
}

// subscriptionResponse is a wallet-facing subscription with its project.
type subscriptionResponse struct {
	AppDomain               string    `json:"app_domain"`
	AuthenticationPublicKey string    `json:"authentication_public_key"`
	Account                 string    `json:"account"`
	SymKey                  string    `json:"sym_key"`
	Scope                   []string  `json:"scope"`
	Expiry                  time.Time `json:"expiry"`
}

func toSubscriptionResponses(subs []model.SubscriberWithProject) []subscriptionResponse {
	out := make([]subscriptionResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, subscriptionResponse{
			AppDomain:               s.AppDomain,
			AuthenticationPublicKey: s.AuthenticationPublicKey,
			Account:                 string(s.Account),
			SymKey:                  s.SymKey,
			Scope:                   s.Scope.Strings(),
			Expiry:                  s.Expiry,
		})
	}
	return out
}

type accountScopesResponse struct {
	Account string   `json:"account"`
	Scope   []string `json:"scope"`
}

func toAccountScopesResponses(in []model.AccountScopes) []accountScopesResponse {
	out := make([]accountScopesResponse, 0, len(in))
	for _, s := range in {
		out = append(out, accountScopesResponse{
			Account: string(s.Account),
			Scope:   s.Scope.Strings(),
		})
	}
	return out
}

type queryAccountsRequest struct {
	Accounts []string `json:"accounts" binding:"required"`
}

type watchRequest struct {
	Account   string `json:"account" binding:"required"`
	AppDomain string `json:"app_domain"`
	DidKey    string `json:"did_key" binding:"required"`
	SymKey    string `json:"sym_key" binding:"required"`
}

// watcherSessionResponse renders a session; project is null for sessions
// covering every app.
type watcherSessionResponse struct {
	Project *uuid.UUID `json:"project"`
	DidKey  string     `json:"did_key"`
	SymKey  string     `json:"sym_key"`
}

func toWatcherSessionResponses(in []model.WatcherSession) []watcherSessionResponse {
	out := make([]watcherSessionResponse, 0, len(in))
	for _, w := range in {
		out = append(out, watcherSessionResponse{Project: w.Project, DidKey: w.DidKey, SymKey: w.SymKey})
	}
	return out
}

type topicsResponse struct {
	Projects    []string `json:"projects"`
	Subscribers []string `json:"subscribers"`
}

func topicStrings(topics []model.Topic) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		out = append(out, string(t))
	}
	return out
}

// parseScope decodes request scope values strictly: unlike stored rows, bad
// input is the caller's bug and gets rejected.
func parseScope(names []string) (model.ScopeSet, error) {
	scope := make(model.ScopeSet, len(names))
	for _, n := range names {
		id, err := uuid.FromString(n)
		if err != nil {
			return nil, fmt.Errorf("bad scope value %q", n)
		}
		scope.Add(id)
	}
	return scope, nil
}

func toAccountIDs(in []string) []model.AccountID {
	out := make([]model.AccountID, 0, len(in))
	for _, a := range in {
		out = append(out, model.AccountID(a))
	}
	return out
}
