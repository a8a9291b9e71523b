package advisor

import (
	"fmt"

	"github.com/ENACT/enact/internal/models"
)

// FallbackModel tags advisories produced without any external call.
const FallbackModel = "fallback"

// Fallback returns deterministic advisory text built entirely locally. It is
// the guaranteed floor under every advisory path: no network, no latency
// beyond string formatting.
func Fallback(currentGrams float64, thresholdType models.ThresholdType, limitGrams float64) string {
	return fmt.Sprintf(`**Threshold Reached!** (%.2fg CO2 / %gg %s limit)

**Quick Actions:**
1. Reduce video streaming quality (saves 30-50%% energy)
2. Take breaks between digital activities
3. Use dark mode to reduce screen energy consumption
4. Close unused browser tabs and applications
5. Schedule downloads during off-peak hours

**Mindful Usage:**
- Batch similar activities together
- Use Wi-Fi instead of mobile data when possible
- Consider audio-only alternatives for content

**Remember:** Small changes add up! Every reduction helps.`, currentGrams, limitGrams, thresholdType)
}
