package domain

import (
	"fmt"
	"strings"
)

type ParentType string

const (
	ParentExperience ParentType = "experience"
	ParentProject    ParentType = "project"
)

const (
	prefixExperience = "exp"
	prefixProject    = "proj"
)

// BulletID is the stable identity of a resume bullet:
// "exp:<job_id>:<local_id>" or "proj:<project_id>:<local_id>".
type BulletID struct {
	Parent   ParentType
	ParentID string
	LocalID  string
}

func NewBulletID(parent ParentType, parentID, localID string) (BulletID, error) {
	if parent != ParentExperience && parent != ParentProject {
		return BulletID{}, WrapError(ErrInvalidInput, "new bullet id", fmt.Errorf("unknown parent type %q", parent))
	}
	if strings.TrimSpace(parentID) == "" || strings.TrimSpace(localID) == "" {
		return BulletID{}, WrapError(ErrInvalidInput, "new bullet id", fmt.Errorf("parent and local ids are required"))
	}
	if strings.Contains(parentID, ":") || strings.Contains(localID, ":") {
		return BulletID{}, WrapError(ErrInvalidInput, "new bullet id", fmt.Errorf("ids must not contain ':'"))
	}
	return BulletID{Parent: parent, ParentID: parentID, LocalID: localID}, nil
}

func (id BulletID) String() string {
	prefix := prefixExperience
	if id.Parent == ParentProject {
		prefix = prefixProject
	}
	return prefix + ":" + id.ParentID + ":" + id.LocalID
}

func ParseBulletID(s string) (BulletID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return BulletID{}, WrapError(ErrInvalidInput, "parse bullet id", fmt.Errorf("want 3 segments, got %d in %q", len(parts), s))
	}

	var parent ParentType
	switch parts[0] {
	case prefixExperience:
		parent = ParentExperience
	case prefixProject:
		parent = ParentProject
	default:
		return BulletID{}, WrapError(ErrInvalidInput, "parse bullet id", fmt.Errorf("unknown prefix %q", parts[0]))
	}

	return NewBulletID(parent, parts[1], parts[2])
}

// Bullet is a single resume line item. The CRUD layer owns the lifecycle;
// the tailoring core only reads it.
type Bullet struct {
	ID   BulletID `json:"bullet_id"`
	Text string   `json:"text"`
}

func (b Bullet) IsExperience() bool {
	return b.ID.Parent == ParentExperience
}
