package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/terminal-bench/lcaengine/internal/catalog"
	"github.com/terminal-bench/lcaengine/internal/impact"
	"github.com/terminal-bench/lcaengine/pkg/messaging"
)

// Snapshots supplies read-only building snapshots. Implemented by the
// catalog store; tests use in-memory fakes.
type Snapshots interface {
	Building(ctx context.Context, id uuid.UUID) (*catalog.Building, error)
}

// Recorder persists report totals for trend history. Implemented by
// the InfluxDB recorder.
type Recorder interface {
	Record(ctx context.Context, rep *Report) error
}

// Service computes building reports, caches them in Redis and fans out
// update events.
type Service struct {
	snapshots Snapshots
	cache     *redis.Client
	msg       *messaging.Client
	history   Recorder
	cacheTTL  time.Duration
}

// NewService wires a report service. cache, msg and history may be nil;
// the service then computes without caching, events or history.
func NewService(snapshots Snapshots, cache *redis.Client, msg *messaging.Client, history Recorder) *Service {
	return &Service{
		snapshots: snapshots,
		cache:     cache,
		msg:       msg,
		history:   history,
		cacheTTL:  15 * time.Minute,
	}
}

func cacheKey(buildingID uuid.UUID) string {
	return "report:" + buildingID.String()
}

// BuildingReport returns the report for one building, from cache when
// fresh, recomputed otherwise.
func (s *Service) BuildingReport(ctx context.Context, buildingID uuid.UUID) (*Report, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey(buildingID)).Result(); err == nil {
			var rep Report
			if json.Unmarshal([]byte(cached), &rep) == nil {
				return &rep, nil
			}
		}
	}

	building, err := s.snapshots.Building(ctx, buildingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load building: %w", err)
	}

	rep, err := s.Compute(ctx, building)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(rep); err == nil {
			s.cache.Set(ctx, cacheKey(buildingID), payload, s.cacheTTL)
		}
	}
	if s.history != nil {
		if err := s.history.Record(ctx, rep); err != nil {
			log.Printf("report history write failed for building %s: %v", buildingID, err)
		}
	}
	if s.msg != nil {
		s.msg.Publish(ctx, messaging.SubjectReportUpdated, messaging.ReportEvent{
			BuildingID: rep.BuildingID,
			TotalGWP:   rep.TotalGWP.String(),
			TotalPENRT: rep.TotalPENRT.String(),
			Timestamp:  time.Now().UTC(),
		})
	}
	return rep, nil
}

// Compute calculates a building report from a snapshot. Assemblies are
// independent, so their products are calculated concurrently; the
// calculator itself is pure and touches no shared state.
func (s *Service) Compute(ctx context.Context, building *catalog.Building) (*Report, error) {
	perAssembly := make([][]impact.Result, len(building.Components))

	g, _ := errgroup.WithContext(ctx)
	for i := range building.Components {
		i := i
		comp := &building.Components[i]
		g.Go(func() error {
			assembly := comp.Assembly
			results := make([]impact.Result, 0)
			for j := range assembly.Products {
				p := &assembly.Products[j]
				rs, err := impact.CalculateImpacts(
					assembly.EffectiveDimension(),
					comp.Quantity,
					building.TotalFloorArea,
					assembly,
					p,
				)
				if err != nil {
					return fmt.Errorf("assembly '%s': %w", assembly.Name, err)
				}
				results = append(results, rs...)
			}
			perAssembly[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []impact.Result
	for _, rs := range perAssembly {
		all = append(all, rs...)
	}

	structural := AggregateStructural(all)
	operational, err := OperationalRows(building)
	if err != nil {
		return nil, err
	}
	return Combine(building, structural, operational), nil
}

// Invalidate drops the cached report of one building.
func (s *Service) Invalidate(ctx context.Context, buildingID uuid.UUID) {
	if s.cache == nil {
		return
	}
	s.cache.Del(ctx, cacheKey(buildingID))
}

// Start subscribes to catalog change events so stale cached reports
// are dropped as soon as a product set is replaced.
func (s *Service) Start() error {
	if s.msg == nil {
		return nil
	}
	return s.msg.Subscribe(messaging.SubjectCatalogAll, func(msg *nats.Msg) {
		var ev messaging.CatalogEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if ev.BuildingID != uuid.Nil {
			s.Invalidate(ctx, ev.BuildingID)
			return
		}
		// Assembly-scoped event: the assembly may be shared by several
		// buildings, so drop every cached report.
		if s.cache != nil {
			iter := s.cache.Scan(ctx, 0, "report:*", 0).Iterator()
			for iter.Next(ctx) {
				s.cache.Del(ctx, iter.Val())
			}
		}
	})
}
