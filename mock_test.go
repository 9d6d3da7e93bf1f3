package clusterdb

import (
	"context"

	domcluster "github.com/kailas-cloud/clusterdb/internal/domain/cluster"
	domdoc "github.com/kailas-cloud/clusterdb/internal/domain/document"
	"github.com/kailas-cloud/clusterdb/internal/domain/query"
	clusteruc "github.com/kailas-cloud/clusterdb/internal/usecase/cluster"
	documentuc "github.com/kailas-cloud/clusterdb/internal/usecase/document"
	healthuc "github.com/kailas-cloud/clusterdb/internal/usecase/health"
)

// --- clusterUseCase mock ---

type mockClusterUC struct {
	createFn func(ctx context.Context, in clusteruc.CreateInput) (domcluster.Cluster, error)
	listFn   func(ctx context.Context, ownerID string) ([]domcluster.Cluster, error)
	getFn    func(ctx context.Context, id, requester string) (domcluster.Cluster, error)
	updateFn func(ctx context.Context, id, requester string, in clusteruc.UpdateInput) (domcluster.Cluster, error)
	deleteFn func(ctx context.Context, id, requester string) error
}

func (m *mockClusterUC) Create(ctx context.Context, in clusteruc.CreateInput) (domcluster.Cluster, error) {
	return m.createFn(ctx, in)
}

func (m *mockClusterUC) List(ctx context.Context, ownerID string) ([]domcluster.Cluster, error) {
	return m.listFn(ctx, ownerID)
}

func (m *mockClusterUC) Get(ctx context.Context, id, requester string) (domcluster.Cluster, error) {
	return m.getFn(ctx, id, requester)
}

func (m *mockClusterUC) Update(
	ctx context.Context, id, requester string, in clusteruc.UpdateInput,
) (domcluster.Cluster, error) {
	return m.updateFn(ctx, id, requester, in)
}

func (m *mockClusterUC) Delete(ctx context.Context, id, requester string) error {
	return m.deleteFn(ctx, id, requester)
}

// --- documentUseCase mock ---

type mockDocumentUC struct {
	createFn     func(ctx context.Context, clusterID, requester string, body map[string]any) (domdoc.Document, error)
	listFn       func(ctx context.Context, clusterID, requester string, p query.Params) (documentuc.Page, error)
	getFn        func(ctx context.Context, clusterID, requester, docID string) (domdoc.Document, error)
	updateFn     func(ctx context.Context, clusterID, requester, docID string, body map[string]any) (domdoc.Document, error)
	patchFn      func(ctx context.Context, clusterID, requester, docID string, body map[string]any) (domdoc.Document, error)
	deleteFn     func(ctx context.Context, clusterID, requester, docID string) error
	deleteManyFn func(ctx context.Context, clusterID, requester string, p query.Params) (int64, error)
	countFn      func(ctx context.Context, clusterID, requester string) (int64, error)
}

func (m *mockDocumentUC) Create(
	ctx context.Context, clusterID, requester string, body map[string]any,
) (domdoc.Document, error) {
	return m.createFn(ctx, clusterID, requester, body)
}

func (m *mockDocumentUC) List(
	ctx context.Context, clusterID, requester string, p query.Params,
) (documentuc.Page, error) {
	return m.listFn(ctx, clusterID, requester, p)
}

func (m *mockDocumentUC) Get(ctx context.Context, clusterID, requester, docID string) (domdoc.Document, error) {
	return m.getFn(ctx, clusterID, requester, docID)
}

func (m *mockDocumentUC) Update(
	ctx context.Context, clusterID, requester, docID string, body map[string]any,
) (domdoc.Document, error) {
	return m.updateFn(ctx, clusterID, requester, docID, body)
}

func (m *mockDocumentUC) Patch(
	ctx context.Context, clusterID, requester, docID string, body map[string]any,
) (domdoc.Document, error) {
	return m.patchFn(ctx, clusterID, requester, docID, body)
}

func (m *mockDocumentUC) Delete(ctx context.Context, clusterID, requester, docID string) error {
	return m.deleteFn(ctx, clusterID, requester, docID)
}

func (m *mockDocumentUC) DeleteMany(ctx context.Context, clusterID, requester string, p query.Params) (int64, error) {
	return m.deleteManyFn(ctx, clusterID, requester, p)
}

func (m *mockDocumentUC) Count(ctx context.Context, clusterID, requester string) (int64, error) {
	return m.countFn(ctx, clusterID, requester)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }
