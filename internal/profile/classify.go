package profile

import (
	"github.com/KaramelBytes/chartloom/internal/dataset"
)

const (
	temporalProbe     = 100
	ordinalMaxUnique  = 12
	ordinalMaxInteger = 50
)

// Classify assigns a semantic type to a column. First match wins:
// date storage is temporal; string columns whose first 100 non-null values
// all parse as dates are temporal; low-cardinality small integers are
// ordinal; other numbers are numeric; everything else is nominal.
func Classify(c *dataset.Column) Dtype {
	switch c.Kind {
	case dataset.KindDate:
		return Temporal
	case dataset.KindString:
		if looksTemporal(c) {
			return Temporal
		}
	case dataset.KindInteger, dataset.KindFloat:
		if c.UniqueCount() >= ordinalMaxUnique || c.Kind == dataset.KindFloat {
			return Numeric
		}
		for _, v := range c.Numbers() {
			if v > ordinalMaxInteger {
				return Numeric
			}
		}
		return Ordinal
	}
	return Nominal
}

func looksTemporal(c *dataset.Column) bool {
	sample := sampleRaw(c, temporalProbe)
	if len(sample) == 0 {
		return false
	}
	for _, v := range sample {
		if _, ok := dataset.ParseTime(v); !ok {
			return false
		}
	}
	return true
}
