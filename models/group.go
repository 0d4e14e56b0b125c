/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package models defines the group document shared by the state manager and
// every storage backend.
package models

import (
	"time"

	"github.com/Seednode/secretsanta/pairing"
)

// Group is one gift exchange, addressed by Code.
//
// Members is append-only until Started flips to true. Pairs is empty until
// then and immutable afterwards. Version increments on every committed
// write and is what storage backends compare-and-set against.
type Group struct {
	Code         string         `json:"code" bson:"_id" dynamodbav:"code"`
	AdminName    string         `json:"admin,omitempty" bson:"admin" dynamodbav:"admin"`
	AdminTokenID string         `json:"-" bson:"adminTokenId" dynamodbav:"adminTokenId"`
	Members      []string       `json:"members" bson:"members" dynamodbav:"members"`
	Started      bool           `json:"started" bson:"started" dynamodbav:"started"`
	Pairs        []pairing.Pair `json:"pairs" bson:"pairs" dynamodbav:"pairs"`
	CreatedAt    time.Time      `json:"createdAt" bson:"createdAt" dynamodbav:"createdAt,unixtime"`
	UpdatedAt    time.Time      `json:"updatedAt" bson:"updatedAt" dynamodbav:"updatedAt,unixtime"`
	Version      int64          `json:"version" bson:"version" dynamodbav:"version"`
}

// Clone returns a deep copy.
func (g *Group) Clone() *Group {
	if g == nil {
		return nil
	}

	c := *g
	c.Members = append([]string(nil), g.Members...)
	c.Pairs = append([]pairing.Pair(nil), g.Pairs...)

	return &c
}

// HasMember reports whether name matches a member case-insensitively.
func (g *Group) HasMember(name string) bool {
	key := pairing.Fold(name)
	for _, m := range g.Members {
		if pairing.Fold(m) == key {
			return true
		}
	}
	return false
}

// View is what any participant may see. It never carries pairs.
type View struct {
	Code      string    `json:"code"`
	Admin     string    `json:"admin,omitempty"`
	Members   []string  `json:"members"`
	Started   bool      `json:"started"`
	Pairs     int       `json:"pairs"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int64     `json:"version"`
}

func (g *Group) View() View {
	members := g.Members
	if members == nil {
		members = []string{}
	}

	return View{
		Code:      g.Code,
		Admin:     g.AdminName,
		Members:   append([]string(nil), members...),
		Started:   g.Started,
		Pairs:     len(g.Pairs),
		CreatedAt: g.CreatedAt,
		Version:   g.Version,
	}
}
