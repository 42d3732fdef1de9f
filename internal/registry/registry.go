package registry

import (
	"fmt"
	"sort"

	"searchmark/internal/config"
	"searchmark/internal/models"

	log "github.com/sirupsen/logrus"
)

// Registry is the static model table. Built once from config at startup,
// read-only afterwards; safe for concurrent use without locking.
type Registry struct {
	byTask map[models.TaskKind][]models.ModelDescriptor
}

// allTasks are the task kinds the registry must be able to serve. A kind
// with no registered model is a startup-time configuration error, never a
// per-request condition.
var allTasks = []models.TaskKind{models.TaskSummarize, models.TaskClassifyFolder}

// New builds a registry from config entries. Descriptors are ordered by
// ascending quality tier, then ascending combined cost within a tier.
func New(entries []config.ModelEntry) (*Registry, error) {
	descriptors := make([]models.ModelDescriptor, 0, len(entries))
	for _, e := range entries {
		tier, ok := models.ParseTier(e.Tier)
		if !ok {
			return nil, fmt.Errorf("%w: model '%s' has unknown tier %q",
				models.ErrConfiguration, e.ID, e.Tier)
		}
		tasks := make([]models.TaskKind, 0, len(e.Tasks))
		for _, t := range e.Tasks {
			switch models.TaskKind(t) {
			case models.TaskSummarize, models.TaskClassifyFolder:
				tasks = append(tasks, models.TaskKind(t))
			default:
				return nil, fmt.Errorf("%w: model '%s' lists unknown task %q",
					models.ErrConfiguration, e.ID, t)
			}
		}
		descriptors = append(descriptors, models.ModelDescriptor{
			ID:            e.ID,
			Provider:      e.Provider,
			Tier:          tier,
			InputPerMTok:  e.InputPerMTok,
			OutputPerMTok: e.OutputPerMTok,
			Tasks:         tasks,
		})
	}

	r := &Registry{byTask: make(map[models.TaskKind][]models.ModelDescriptor)}
	for _, kind := range allTasks {
		var suitable []models.ModelDescriptor
		for _, d := range descriptors {
			if d.SupportsTask(kind) {
				suitable = append(suitable, d)
			}
		}
		if len(suitable) == 0 {
			return nil, fmt.Errorf("%w: no model registered for task %q",
				models.ErrConfiguration, kind)
		}
		sort.SliceStable(suitable, func(i, j int) bool {
			if suitable[i].Tier != suitable[j].Tier {
				return suitable[i].Tier < suitable[j].Tier
			}
			ci := suitable[i].InputPerMTok + suitable[i].OutputPerMTok
			cj := suitable[j].InputPerMTok + suitable[j].OutputPerMTok
			return ci < cj
		})
		r.byTask[kind] = suitable
		log.Debugf("registry: %d model(s) registered for task %s", len(suitable), kind)
	}

	return r, nil
}

// ModelsFor returns the descriptors approved for kind, ordered by
// ascending tier then ascending cost. The returned slice is shared and
// must not be mutated.
func (r *Registry) ModelsFor(kind models.TaskKind) []models.ModelDescriptor {
	return r.byTask[kind]
}

// All returns every registered descriptor, deduplicated by id, ordered as
// ModelsFor orders them. Used by the models listing command.
func (r *Registry) All() []models.ModelDescriptor {
	seen := make(map[string]bool)
	var out []models.ModelDescriptor
	for _, kind := range allTasks {
		for _, d := range r.byTask[kind] {
			if !seen[d.ID] {
				seen[d.ID] = true
				out = append(out, d)
			}
		}
	}
	return out
}
