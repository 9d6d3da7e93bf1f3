// Package clusterdb is an in-process client for the clusterdb document engine:
// tenant-owned clusters, each backed by one MongoDB collection, with an
// optional schema, secondary indexes and a per-cluster access policy.
//
// # Low-level API
//
//	client, _ := clusterdb.New(ctx,
//	    clusterdb.WithMongo("mongodb://localhost:27017", "clusterdb"),
//	    clusterdb.WithRedis("localhost:6379"),
//	)
//	defer client.Close(ctx)
//
//	pets, _ := client.CreateCluster(ctx, userID, "Pets",
//	    clusterdb.WithField(clusterdb.Field{Name: "name", Type: clusterdb.FieldString, Required: true}),
//	    clusterdb.WithIndex(clusterdb.Index{Field: "name"}),
//	    clusterdb.ReadAccess(clusterdb.Public),
//	)
//	doc, _ := client.CreateDocument(ctx, pets.ID, userID, map[string]any{"name": "Rex"})
//	page, _ := client.ListDocuments(ctx, pets.ID, "", clusterdb.ListQuery{Sort: "-createdAt"})
//
// # Typed API
//
//	type Pet struct {
//	    ID   string `json:"_id,omitempty"`
//	    Name string `json:"name" clusterdb:"required"`
//	    Age  int    `json:"age"`
//	}
//
//	schema, _ := clusterdb.SchemaOf[Pet]()
//	pets, _ := client.CreateCluster(ctx, userID, "Pets", clusterdb.WithSchema(*schema))
//	typed := clusterdb.Typed[Pet](client, pets.ID, userID)
//	id, _ := typed.Create(ctx, Pet{Name: "Rex", Age: 3})
package clusterdb
