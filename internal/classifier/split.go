package classifier

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"threatcat/internal/models"
)

// StratifiedSplit partitions example indices into a training and a test
// split so that each label keeps its share in both. Every label needs at
// least two examples and ends up with at least one in each split.
func StratifiedSplit(labels []string, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size %v must be in (0, 1)", testSize)
	}

	byLabel := map[string][]int{}
	for i, l := range labels {
		byLabel[l] = append(byLabel[l], i)
	}
	classes := make([]string, 0, len(byLabel))
	for l := range byLabel {
		classes = append(classes, l)
	}
	sort.Strings(classes)
	for _, l := range classes {
		if n := len(byLabel[l]); n < 2 {
			return nil, nil, fmt.Errorf("%w: class %q has %d example(s), need at least 2",
				models.ErrInsufficientData, l, n)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	for _, l := range classes {
		idx := byLabel[l]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTest := int(math.Round(float64(len(idx)) * testSize))
		if nTest < 1 {
			nTest = 1
		}
		if nTest > len(idx)-1 {
			nTest = len(idx) - 1
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}
