package folder

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	log "github.com/sirupsen/logrus"

	"searchmark/internal/models"
)

// Resolver maps a model-proposed folder reference onto a concrete node.
// The model sees a serialized tree and may answer with a value that
// matches no node exactly: renamed in transit, partial path, wrong case,
// an invented folder, or a display name duplicated across branches.
// Resolution therefore runs a strict ladder and refuses to guess; a
// silently misfiled bookmark is worse than an explicit failure.
type Resolver struct {
	// AcceptThreshold is the minimum fuzzy similarity (0-1) of the best
	// candidate; Margin is the minimum gap to the second best. Both are
	// tuning knobs, classification accuracy is sensitive to them.
	AcceptThreshold float64
	Margin          float64
}

func NewResolver(acceptThreshold, margin float64) *Resolver {
	return &Resolver{AcceptThreshold: acceptThreshold, Margin: margin}
}

// Resolve ties ref to a node of tree, or explains why it cannot. Match
// order, each step only tried when the previous found nothing:
//
//  1. exact identifier match;
//  2. exact normalized path match;
//  3. unique normalized display-name match (duplicates escalate, never an
//     arbitrary pick);
//  4. fuzzy similarity against every name and path, gated on threshold
//     and margin.
//
// The tree is never mutated and no default folder is ever substituted.
func (r *Resolver) Resolve(ref string, tree *Tree) (*Node, *models.ResolutionFailure) {
	if node, ok := tree.Node(ref); ok {
		return node, nil
	}

	norm := Normalize(ref)
	if norm == "" {
		return nil, &models.ResolutionFailure{Kind: models.NoPlausibleNode, Reference: ref}
	}

	if node := r.matchNormalizedPath(norm, tree); node != nil {
		return node, nil
	}

	node, failure := r.matchDisplayName(ref, norm, tree)
	if node != nil || failure != nil {
		return node, failure
	}

	return r.matchFuzzy(ref, norm, tree)
}

func (r *Resolver) matchNormalizedPath(norm string, tree *Tree) *Node {
	var match *Node
	for _, id := range tree.IDs() {
		if Normalize(tree.Path(id)) == norm {
			if match != nil {
				// Two nodes sharing a normalized path means duplicate
				// sibling names; fall through to the ambiguity handling of
				// the display-name step.
				return nil
			}
			match, _ = tree.Node(id)
		}
	}
	return match
}

func (r *Resolver) matchDisplayName(ref, norm string, tree *Tree) (*Node, *models.ResolutionFailure) {
	var matches []string
	for _, id := range tree.IDs() {
		node, _ := tree.Node(id)
		if Normalize(node.Name) == norm {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		node, _ := tree.Node(matches[0])
		return node, nil
	default:
		return nil, &models.ResolutionFailure{
			Kind:       models.AmbiguousCandidates,
			Reference:  ref,
			Candidates: matches,
		}
	}
}

type scored struct {
	id    string
	score float64
}

func (r *Resolver) matchFuzzy(ref, norm string, tree *Tree) (*Node, *models.ResolutionFailure) {
	scores := make([]scored, 0, tree.Len())
	for _, id := range tree.IDs() {
		node, _ := tree.Node(id)
		s := similarity(norm, Normalize(node.Name))
		if p := similarity(norm, Normalize(tree.Path(id))); p > s {
			s = p
		}
		scores = append(scores, scored{id: id, score: s})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if len(scores) == 0 || scores[0].score < r.AcceptThreshold {
		return nil, &models.ResolutionFailure{Kind: models.NoPlausibleNode, Reference: ref}
	}

	best := scores[0]
	second := 0.0
	if len(scores) > 1 {
		second = scores[1].score
	}
	if best.score-second < r.Margin {
		candidates := []string{best.id}
		for _, s := range scores[1:] {
			if best.score-s.score < r.Margin {
				candidates = append(candidates, s.id)
			}
		}
		log.Debugf("resolver: reference %q ambiguous between %d fuzzy candidates (best %.3f, second %.3f)",
			ref, len(candidates), best.score, second)
		return nil, &models.ResolutionFailure{
			Kind:       models.AmbiguousCandidates,
			Reference:  ref,
			Candidates: candidates,
		}
	}

	node, _ := tree.Node(best.id)
	log.Debugf("resolver: reference %q fuzzy-matched to %q (%.3f)", ref, tree.Path(best.id), best.score)
	return node, nil
}

// similarity is a normalized edit-distance score in [0, 1]; 1 means equal.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	max := la
	if lb > max {
		max = lb
	}
	if max == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(max)
}

// Normalize case-folds a folder reference and collapses whitespace and the
// separator variants models produce (">", "\", "|") into single slashes.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, sep := range []string{">", "\\", "|"} {
		s = strings.ReplaceAll(s, sep, "/")
	}
	s = strings.Join(strings.Fields(s), " ")
	parts := strings.Split(s, "/")
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}
