package rules

import (
	"fmt"

	"github.com/erazemk/igralnica/internal/model"
)

// Requirements are the declared needs of a request.
type Requirements struct {
	Purpose       string `json:"purpose"`
	Controllers   int    `json:"controllers"`
	NeedsHDMI     bool   `json:"needsHdmi"`
	NeedsEthernet bool   `json:"needsEthernet"`
	NeedsUSB      bool   `json:"needsUsb"`
}

// Recommendation is a suggested equipment class with its rationale.
type Recommendation struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// Recommend maps requirements to a suggested system type. The first matching
// rule wins; there is always a recommendation.
func Recommend(req Requirements) Recommendation {
	controllers := req.Controllers
	if controllers <= 0 {
		controllers = 1
	}

	switch {
	case req.Purpose == model.PurposeVREvent:
		return Recommendation{
			Type:   model.SystemMetaQuestPro,
			Reason: "Quest Pro recommended for VR events with best tracking and display quality.",
		}
	case req.Purpose == model.PurposeVRDemo:
		return Recommendation{
			Type:   model.SystemQuest2,
			Reason: "Quest 2 is great for VR demos and easier for new users.",
		}
	case controllers > 3 || req.NeedsEthernet:
		if req.Purpose == model.PurposeTournament {
			return Recommendation{
				Type:   model.SystemPS5Cart,
				Reason: "PS5 Cart recommended for tournaments - includes 4 controllers and ethernet for stable online play.",
			}
		}
		return Recommendation{
			Type:   model.SystemXboxCart,
			Reason: fmt.Sprintf("Cart system recommended for %d controllers with full cable setup.", controllers),
		}
	case controllers > 2:
		return Recommendation{
			Type:   model.SystemSwitch,
			Reason: "Switch offers flexible multiplayer with up to 4 controllers in a portable format.",
		}
	default:
		return Recommendation{
			Type:   model.SystemPS5Bag,
			Reason: "Bag system is portable and perfect for smaller setups with 1-2 controllers.",
		}
	}
}
