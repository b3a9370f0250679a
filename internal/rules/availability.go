package rules

import (
	"sort"

	"github.com/erazemk/igralnica/internal/model"
)

// Matches reports whether a system satisfies the capability requirements.
// Power cables are never a criterion.
func Matches(s model.System, req Requirements) bool {
	minControllers := req.Controllers
	if minControllers <= 0 {
		minControllers = 1
	}
	return s.Available &&
		s.Controllers >= minControllers &&
		(!req.NeedsHDMI || s.Cables.HDMI) &&
		(!req.NeedsEthernet || s.Cables.Ethernet) &&
		(!req.NeedsUSB || s.Cables.USB)
}

// FindAvailable returns the systems matching req, sorted by name. The result
// is never nil; no match is an empty slice.
func FindAvailable(systems []model.System, req Requirements) []model.System {
	matched := make([]model.System, 0, len(systems))
	for _, s := range systems {
		if Matches(s, req) {
			matched = append(matched, s)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Name < matched[j].Name
	})
	return matched
}
