package clusterdb

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/kailas-cloud/clusterdb/internal/domain"
	domcluster "github.com/kailas-cloud/clusterdb/internal/domain/cluster"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/field"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/index"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/schema"
	domdoc "github.com/kailas-cloud/clusterdb/internal/domain/document"
	"github.com/kailas-cloud/clusterdb/internal/domain/query"
	clusteruc "github.com/kailas-cloud/clusterdb/internal/usecase/cluster"
	documentuc "github.com/kailas-cloud/clusterdb/internal/usecase/document"
)

func toSchemaDefinition(s *Schema) *schema.Definition {
	if s == nil {
		return nil
	}
	return &schema.Definition{
		Fields: lo.Map(s.Fields, func(f Field, _ int) field.Definition {
			return field.Definition{
				Name:     f.Name,
				Type:     string(f.Type),
				Required: f.Required,
				Default:  f.Default,
				Enum:     f.Enum,
			}
		}),
		Strict: s.Strict,
	}
}

func fromSchemaDefinition(d schema.Definition) Schema {
	return Schema{
		Fields: lo.Map(d.Fields, func(f field.Definition, _ int) Field {
			return Field{
				Name:     f.Name,
				Type:     FieldType(f.Type),
				Required: f.Required,
				Default:  f.Default,
				Enum:     f.Enum,
			}
		}),
		Strict: d.Strict,
	}
}

func toIndexDefinitions(ixs []Index) []index.Definition {
	return lo.Map(ixs, func(ix Index, _ int) index.Definition {
		return index.Definition{Field: ix.Field, Order: ix.Order, Unique: ix.Unique}
	})
}

func toCreateInput(ownerID, name string, cfg *clusterConfig) clusteruc.CreateInput {
	return clusteruc.CreateInput{
		OwnerID:     ownerID,
		Name:        name,
		Description: cfg.description,
		Schema:      toSchemaDefinition(cfg.schema),
		Indexes:     toIndexDefinitions(cfg.indexes),
		ReadAccess:  string(cfg.readAccess),
		WriteAccess: string(cfg.writeAccess),
	}
}

func toUpdateInput(u ClusterUpdate) clusteruc.UpdateInput {
	in := clusteruc.UpdateInput{
		Name:        u.Name,
		Description: u.Description,
		Schema:      toSchemaDefinition(u.Schema),
		APIEnabled:  u.APIEnabled,
	}
	if u.Indexes != nil {
		defs := toIndexDefinitions(*u.Indexes)
		in.Indexes = &defs
	}
	if u.ReadAccess != nil {
		in.ReadAccess = lo.ToPtr(string(*u.ReadAccess))
	}
	if u.WriteAccess != nil {
		in.WriteAccess = lo.ToPtr(string(*u.WriteAccess))
	}
	return in
}

func fromCluster(c domcluster.Cluster) Cluster {
	return Cluster{
		ID:             c.ID(),
		OwnerID:        c.OwnerID(),
		Name:           c.Name(),
		Slug:           c.Slug(),
		Description:    c.Description(),
		CollectionName: c.CollectionName(),
		Schema:         fromSchemaDefinition(c.Schema().Definition()),
		Indexes: lo.Map(c.Indexes(), func(ix index.Spec, _ int) Index {
			return Index{Field: ix.Field(), Order: int(ix.Order()), Unique: ix.Unique()}
		}),
		APIEnabled:    c.APIEnabled(),
		ReadAccess:    AccessLevel(c.ReadAccess()),
		WriteAccess:   AccessLevel(c.WriteAccess()),
		DocumentCount: c.DocumentCount(),
		CreatedAt:     c.CreatedAt(),
		UpdatedAt:     c.UpdatedAt(),
	}
}

func fromDocument(d domdoc.Document) Document {
	return Document{
		ID:        d.ID(),
		Fields:    d.Fields(),
		CreatedAt: d.CreatedAt(),
		UpdatedAt: d.UpdatedAt(),
	}
}

func fromPage(p documentuc.Page) Page {
	return Page{
		Documents: lo.Map(p.Documents, func(d domdoc.Document, _ int) Document { return fromDocument(d) }),
		Pagination: Pagination{
			Page:  p.Pagination.Page,
			Limit: p.Pagination.Limit,
			Total: p.Pagination.Total,
			Pages: p.Pagination.Pages,
		},
	}
}

// toParams renders a ListQuery as the raw parameters the HTTP layer would pass.
func toParams(q ListQuery) (query.Params, error) {
	p := query.Params{
		Search: q.Search,
		Sort:   q.Sort,
		Select: strings.Join(q.Select, ","),
		Loose:  q.Where,
	}
	if q.Filter != nil {
		b, err := json.Marshal(q.Filter)
		if err != nil {
			return query.Params{}, domain.NewValidationError("filter", err.Error())
		}
		p.Filter = string(b)
	}
	if q.Page > 0 {
		p.Page = strconv.Itoa(q.Page)
	}
	if q.Limit > 0 {
		p.Limit = strconv.Itoa(q.Limit)
	}
	return p, nil
}
