package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
)

func record(method id.MethodType, weight float64) models.MethodRecord {
	return models.MethodRecord{Method: method, Weight: weight}
}

func TestAggregate(t *testing.T) {
	t.Run("empty list scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Aggregate(nil))
	})

	t.Run("sums weights below the cap", func(t *testing.T) {
		records := []models.MethodRecord{
			record(id.MethodCommunity, 20),
			record(id.MethodActivity, 15),
			record(id.MethodTrustNetwork, 10),
		}
		assert.Equal(t, 45.0, Aggregate(records))
	})

	t.Run("caps at 100", func(t *testing.T) {
		records := []models.MethodRecord{
			record(id.MethodDocument, 60),
			record(id.MethodInPerson, 55),
		}
		assert.Equal(t, 100.0, Aggregate(records))
	})

	t.Run("diminishing returns beyond two community records", func(t *testing.T) {
		// 5 community records: raw sum minus 2x3 penalty.
		records := []models.MethodRecord{
			record(id.MethodCommunity, 10),
			record(id.MethodCommunity, 10),
			record(id.MethodCommunity, 10),
			record(id.MethodCommunity, 10),
			record(id.MethodCommunity, 10),
		}
		assert.Equal(t, 44.0, Aggregate(records))
	})

	t.Run("penalty floors at zero", func(t *testing.T) {
		records := []models.MethodRecord{
			record(id.MethodCommunity, 1),
			record(id.MethodCommunity, 1),
			record(id.MethodCommunity, 1),
			record(id.MethodCommunity, 1),
			record(id.MethodCommunity, 1),
		}
		// 5 - 6 penalty would go negative.
		assert.Equal(t, 0.0, Aggregate(records))
	})

	t.Run("two community records take no penalty", func(t *testing.T) {
		records := []models.MethodRecord{
			record(id.MethodCommunity, 20),
			record(id.MethodCommunity, 20),
		}
		assert.Equal(t, 40.0, Aggregate(records))
	})

	t.Run("rounds to two decimals", func(t *testing.T) {
		records := []models.MethodRecord{
			record(id.MethodActivity, 10.333),
			record(id.MethodDocument, 20.111),
		}
		assert.Equal(t, 30.44, Aggregate(records))
	})
}

// TestAggregate_Bounds sweeps weight combinations to check the range invariant
// and monotonicity in any individual weight (community count held at <=2).
func TestAggregate_Bounds(t *testing.T) {
	weights := []float64{0, 0.5, 10, 25, 50, 99.99, 100}
	methods := []id.MethodType{id.MethodDocument, id.MethodCommunity, id.MethodInPerson, id.MethodActivity}

	for _, m := range methods {
		for _, w1 := range weights {
			for _, w2 := range weights {
				records := []models.MethodRecord{
					record(m, w1),
					record(id.MethodTrustNetwork, w2),
				}
				got := Aggregate(records)
				assert.GreaterOrEqual(t, got, 0.0)
				assert.LessOrEqual(t, got, MaxComposite)

				// Raising a single weight never lowers the score.
				bumped := []models.MethodRecord{
					record(m, w1+5),
					record(id.MethodTrustNetwork, w2),
				}
				assert.GreaterOrEqual(t, Aggregate(bumped), got)
			}
		}
	}
}

// TestAggregate_Deterministic folds the same input twice; any wall-clock or
// ordering dependence would break replay.
func TestAggregate_Deterministic(t *testing.T) {
	records := []models.MethodRecord{
		record(id.MethodCommunity, 17.77),
		record(id.MethodDocument, 25),
		record(id.MethodActivity, 12.5),
	}
	first := Aggregate(records)
	for range 100 {
		assert.Equal(t, first, Aggregate(records))
	}
}
