package cluster

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kailas-cloud/clusterdb/internal/domain/access"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/index"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/schema"
)

// Length limits for user-supplied text.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
)

// collectionPrefix prefixes every physical collection name.
const collectionPrefix = "cluster_"

// Cluster is the cluster aggregate (immutable value object).
type Cluster struct {
	id             string
	ownerID        string
	name           string
	slug           string
	description    string
	collectionName string
	schema         schema.Descriptor
	indexes        []index.Spec
	apiEnabled     bool
	readAccess     access.Level
	writeAccess    access.Level
	documentCount  int64
	active         bool
	createdAt      time.Time
	updatedAt      time.Time
}

// Params holds the validated inputs of a new cluster.
type Params struct {
	OwnerID     string
	Name        string
	Description string
	Schema      schema.Descriptor
	Indexes     []index.Spec
	ReadAccess  access.Level
	WriteAccess access.Level
}

// New validates and creates a Cluster. The identifier is assigned by storage.
// Slug and physical collection name derive from (OwnerID, Name).
func New(p Params, now time.Time) (Cluster, error) {
	if p.OwnerID == "" {
		return Cluster{}, fmt.Errorf("owner is required")
	}
	name := strings.TrimSpace(p.Name)
	if err := validateName(name); err != nil {
		return Cluster{}, err
	}
	if err := validateDescription(p.Description); err != nil {
		return Cluster{}, err
	}
	read, write := p.ReadAccess, p.WriteAccess
	if read == "" {
		read = access.Private
	}
	if write == "" {
		write = access.Private
	}

	slug := Slugify(name)
	return Cluster{
		ownerID:        p.OwnerID,
		name:           name,
		slug:           slug,
		description:    p.Description,
		collectionName: CollectionName(p.OwnerID, slug),
		schema:         p.Schema,
		indexes:        p.Indexes,
		apiEnabled:     true,
		readAccess:     read,
		writeAccess:    write,
		active:         true,
		createdAt:      now.UTC(),
		updatedAt:      now.UTC(),
	}, nil
}

// WithTimestampSuffix returns a copy whose slug and collection name carry a
// millisecond timestamp suffix, used when the plain slug is already taken.
func (c Cluster) WithTimestampSuffix(now time.Time) Cluster {
	c.slug = Slugify(c.name) + "-" + strconv.FormatInt(now.UnixMilli(), 10)
	c.collectionName = CollectionName(c.ownerID, c.slug)
	return c
}

// WithID returns a copy carrying the storage-assigned identifier.
func (c Cluster) WithID(id string) Cluster {
	c.id = id
	return c
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("cluster name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("cluster name too long (max %d)", MaxNameLength)
	}
	return nil
}

func validateDescription(d string) error {
	if utf8.RuneCountInString(d) > MaxDescriptionLength {
		return fmt.Errorf("description too long (max %d)", MaxDescriptionLength)
	}
	return nil
}

// Slugify lowercases name, collapses runs of non-alphanumerics into '-' and
// trims leading and trailing '-'. An empty result becomes "cluster".
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "cluster"
	}
	return slug
}

// CollectionName derives the physical collection name for an owner and slug.
// Characters outside [A-Za-z0-9_-] in the owner id are replaced with '_'.
func CollectionName(ownerID, slug string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, ownerID)
	return collectionPrefix + safe + "_" + slug
}

// ID returns the storage-assigned identifier.
func (c Cluster) ID() string { return c.id }

// OwnerID returns the creator's identity.
func (c Cluster) OwnerID() string { return c.ownerID }

// Name returns the display name.
func (c Cluster) Name() string { return c.name }

// Slug returns the URL-safe name.
func (c Cluster) Slug() string { return c.slug }

// Description returns the free-form description.
func (c Cluster) Description() string { return c.description }

// CollectionName returns the physical collection name. It never changes.
func (c Cluster) CollectionName() string { return c.collectionName }

// Schema returns the compiled schema descriptor.
func (c Cluster) Schema() schema.Descriptor { return c.schema }

// Indexes returns the declared secondary indexes.
func (c Cluster) Indexes() []index.Spec { return c.indexes }

// APIEnabled reports whether document operations are allowed at all.
func (c Cluster) APIEnabled() bool { return c.apiEnabled }

// ReadAccess returns the read visibility level.
func (c Cluster) ReadAccess() access.Level { return c.readAccess }

// WriteAccess returns the write visibility level.
func (c Cluster) WriteAccess() access.Level { return c.writeAccess }

// DocumentCount returns the best-effort document counter.
func (c Cluster) DocumentCount() int64 { return c.documentCount }

// IsActive reports whether the cluster is visible.
func (c Cluster) IsActive() bool { return c.active }

// CreatedAt returns the creation time.
func (c Cluster) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns the last modification time.
func (c Cluster) UpdatedAt() time.Time { return c.updatedAt }

// Policy returns the access policy of the cluster.
func (c Cluster) Policy() access.Policy {
	return access.Policy{OwnerID: c.ownerID, Read: c.readAccess, Write: c.writeAccess}
}
