package visit

import "strconv"

// Slice visits a list as a region with a Count field followed by one
// region per element named Item0..ItemN-1. In read mode *s is replaced by a
// slice of the stored length before fn is called on each element.
func Slice[T any](v *Visitor, name string, s *[]T, fn func(v *Visitor, item *T) error) error {
	return v.Region(name, func() error {
		n := len(*s)
		if err := v.Count("Count", &n); err != nil {
			return err
		}
		if v.IsReading() {
			*s = make([]T, n)
		}
		for i := range *s {
			item := &(*s)[i]
			if err := v.Region("Item"+strconv.Itoa(i), func() error { return fn(v, item) }); err != nil {
				return err
			}
		}
		return nil
	})
}
