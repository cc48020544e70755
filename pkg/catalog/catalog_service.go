package catalog

import (
	"context"
	"errors"
	"fmt"
	"nutrition-catalog/domain"
	"nutrition-catalog/internal/metrics"
	"nutrition-catalog/internal/utils/storage"
	"nutrition-catalog/pkg/approved"
	"nutrition-catalog/pkg/asset"
	"nutrition-catalog/pkg/identity"
	"nutrition-catalog/pkg/legacy"
	"nutrition-catalog/pkg/submission"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Source names used in logs, metrics and Snapshot.Degraded.
const (
	SourceNameApproved = "approved"
	SourceNamePending  = "pending"
	SourceNameLegacy   = "legacy"
)

type (
	// Snapshot is one published catalog. It is never modified after
	// publication.
	Snapshot struct {
		Version  uint64
		Items    []domain.CatalogItem
		LoadedAt time.Time
		Degraded []string
	}

	Criteria struct {
		Category domain.Category
		Search   string
	}

	Aggregator interface {
		Load(ctx context.Context, user domain.Identity) (*Snapshot, error)
		Snapshot() *Snapshot
		Find(id string) (domain.CatalogItem, bool)
		SetFilter(criteria Criteria) []domain.CatalogItem
		View() []domain.CatalogItem
		SubmitNew(ctx context.Context, draft domain.CatalogItem, photo []byte) (domain.SubmitResult, error)
	}

	Dependencies struct {
		Reference   func() []domain.CatalogItem
		Approved    approved.ApprovedRepository
		Submissions submission.SubmissionRepository
		Legacy      legacy.Store
		Assets      asset.AssetStore
		Identity    identity.Provider
		Metrics     *metrics.Registry
	}

	published struct {
		snapshot *Snapshot
		criteria Criteria
		view     []domain.CatalogItem
	}

	aggregator struct {
		deps Dependencies

		// mu serializes every publication: loads, optimistic appends and
		// filter changes
		mu       sync.Mutex
		current  atomic.Pointer[published]
		legacyMu sync.Mutex
	}
)

func NewAggregator(deps Dependencies) Aggregator {
	if deps.Identity == nil {
		deps.Identity = identity.FromContext()
	}
	a := &aggregator{deps: deps}
	initial := &Snapshot{Items: Merge(a.reference()), LoadedAt: time.Now()}
	a.current.Store(&published{snapshot: initial, view: initial.Items})
	return a
}

func (a *aggregator) reference() []domain.CatalogItem {
	if a.deps.Reference == nil {
		return nil
	}
	return withSource(a.deps.Reference(), domain.SourceReference)
}

func withSource(items []domain.CatalogItem, source domain.Source) []domain.CatalogItem {
	out := make([]domain.CatalogItem, len(items))
	for i, item := range items {
		item.Source = source
		out[i] = item
	}
	return out
}

func (a *aggregator) Snapshot() *Snapshot {
	return a.current.Load().snapshot
}

func (a *aggregator) View() []domain.CatalogItem {
	return a.current.Load().view
}

func (a *aggregator) Find(id string) (domain.CatalogItem, bool) {
	for _, item := range a.Snapshot().Items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.CatalogItem{}, false
}

func (a *aggregator) SetFilter(criteria Criteria) []domain.CatalogItem {
	a.mu.Lock()
	defer a.mu.Unlock()
	cur := a.current.Load()
	next := &published{
		snapshot: cur.snapshot,
		criteria: criteria,
		view:     Filter(cur.snapshot.Items, criteria.Category, criteria.Search),
	}
	a.current.Store(next)
	return next.view
}

// publish must be called with a.mu held.
func (a *aggregator) publish(snap *Snapshot) {
	criteria := a.current.Load().criteria
	a.current.Store(&published{
		snapshot: snap,
		criteria: criteria,
		view:     Filter(snap.Items, criteria.Category, criteria.Search),
	})
	a.deps.Metrics.CatalogVersion.Set(float64(snap.Version))
}

// Load fetches all four sources concurrently and publishes their merge. A
// failing remote or legacy source degrades to empty. If another publication
// happened while fetching, the result is discarded and the newer snapshot
// returned.
func (a *aggregator) Load(ctx context.Context, user domain.Identity) (*Snapshot, error) {
	start := time.Now()
	base := a.Snapshot().Version

	var (
		referenceItems, approvedItems, pendingItems, legacyItems []domain.CatalogItem
		degradedMu                                               sync.Mutex
		degraded                                                 []string
	)
	degrade := func(source string, err error) {
		log.Warnf("catalog load: %s source unavailable: %v", source, err)
		a.deps.Metrics.SourceDegraded.WithLabelValues(source).Inc()
		degradedMu.Lock()
		degraded = append(degraded, source)
		degradedMu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		referenceItems = a.reference()
		return nil
	})
	if a.deps.Approved != nil {
		g.Go(func() error {
			items, err := a.deps.Approved.FetchAll(gctx)
			if err != nil {
				degrade(SourceNameApproved, err)
				return nil
			}
			approvedItems = withSource(items, domain.SourceApproved)
			return nil
		})
	}
	if a.deps.Submissions != nil && user.ID != "" {
		g.Go(func() error {
			subs, err := a.deps.Submissions.ListMine(gctx, user.ID)
			if err != nil {
				degrade(SourceNamePending, err)
				return nil
			}
			items := make([]domain.CatalogItem, 0, len(subs))
			for _, sub := range subs {
				items = append(items, sub.Item)
			}
			pendingItems = withSource(items, domain.SourceOwnPending)
			return nil
		})
	}
	if a.deps.Legacy != nil {
		g.Go(func() error {
			items, err := a.deps.Legacy.Load(gctx)
			if err != nil {
				degrade(SourceNameLegacy, err)
				return nil
			}
			legacyItems = withSource(items, domain.SourceLegacyLocal)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return a.Snapshot(), err
	}

	merged := Merge(referenceItems, approvedItems, legacyItems, pendingItems)
	a.deps.Metrics.CatalogLoads.Inc()
	a.deps.Metrics.CatalogLoadSec.Observe(time.Since(start).Seconds())

	a.mu.Lock()
	defer a.mu.Unlock()
	cur := a.current.Load().snapshot
	if cur.Version != base {
		log.Infof("catalog load based on v%d discarded, v%d already published", base, cur.Version)
		a.deps.Metrics.CatalogDiscarded.Inc()
		return cur, nil
	}
	snap := &Snapshot{
		Version:  base + 1,
		Items:    merged,
		LoadedAt: time.Now(),
		Degraded: degraded,
	}
	a.publish(snap)
	return snap, nil
}

// SubmitNew sends a draft to moderation and shows it to the submitter right
// away. When the remote write is impossible the draft is kept in the legacy
// store instead.
func (a *aggregator) SubmitNew(ctx context.Context, draft domain.CatalogItem, photo []byte) (domain.SubmitResult, error) {
	item := draft
	item.ID = ""
	if err := item.Validate(); err != nil {
		a.deps.Metrics.SubmissionOutcomes.WithLabelValues(string(domain.OutcomeFailed)).Inc()
		return domain.SubmitResult{Outcome: domain.OutcomeFailed, Item: item}, err
	}

	if len(photo) > 0 {
		if _, ok := storage.DetectContentType(photo, storage.AllowImage...); !ok {
			a.deps.Metrics.SubmissionOutcomes.WithLabelValues(string(domain.OutcomeFailed)).Inc()
			return domain.SubmitResult{Outcome: domain.OutcomeFailed, Item: item}, domain.ErrInvalidImageFormat
		}
	}

	// nothing is written for an anonymous caller, the photo included
	user, ok := a.deps.Identity.CurrentUser(ctx)
	if !ok && len(photo) > 0 {
		log.Warnf("submit %q: no identity, photo dropped", item.Name)
	}
	if ok && len(photo) > 0 && a.deps.Assets != nil {
		imageID, err := a.deps.Assets.Put(ctx, photo)
		if err != nil {
			log.Warnf("submit %q: photo not stored, continuing without it: %v", item.Name, err)
		} else {
			item.ImageRef = imageID
		}
	}

	var cause error
	switch {
	case !ok:
		cause = domain.ErrAuthRequired
	case a.deps.Submissions == nil:
		cause = domain.ErrRemoteWriteFailed
	default:
		sub, err := a.deps.Submissions.Submit(ctx, item, user.ID, user.Email)
		if err == nil {
			pending := sub.Item
			pending.Source = domain.SourceOwnPending
			a.appendItem(pending)
			a.deps.Metrics.SubmissionOutcomes.WithLabelValues(string(domain.OutcomeSubmitted)).Inc()
			return domain.SubmitResult{Outcome: domain.OutcomeSubmitted, Item: pending}, nil
		}
		cause = err
	}

	local := item
	local.ID = "local-" + uuid.New().String()
	local.CreatorUserID = user.ID
	local.CreatorEmail = user.Email
	local.Source = domain.SourceLegacyLocal
	if err := a.saveLegacy(ctx, local); err != nil {
		a.deps.Metrics.SubmissionOutcomes.WithLabelValues(string(domain.OutcomeFailed)).Inc()
		return domain.SubmitResult{Outcome: domain.OutcomeFailed, Item: item, Cause: cause},
			errors.Join(cause, fmt.Errorf("local fallback: %w", err))
	}
	log.Warnf("submit %q: kept locally only: %v", item.Name, cause)
	a.appendItem(local)
	a.deps.Metrics.SubmissionOutcomes.WithLabelValues(string(domain.OutcomeSavedLocally)).Inc()
	return domain.SubmitResult{Outcome: domain.OutcomeSavedLocally, Item: local, Cause: cause}, nil
}

func (a *aggregator) saveLegacy(ctx context.Context, item domain.CatalogItem) error {
	if a.deps.Legacy == nil {
		return errors.New("no local store configured")
	}
	a.legacyMu.Lock()
	defer a.legacyMu.Unlock()
	return legacy.Add(context.WithoutCancel(ctx), a.deps.Legacy, item)
}

// appendItem folds item into a new snapshot version.
func (a *aggregator) appendItem(item domain.CatalogItem) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cur := a.current.Load().snapshot
	a.publish(&Snapshot{
		Version:  cur.Version + 1,
		Items:    Merge(cur.Items, []domain.CatalogItem{item}),
		LoadedAt: cur.LoadedAt,
		Degraded: cur.Degraded,
	})
}
