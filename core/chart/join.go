package chart

import "github.com/samber/lo"

// Join is the keyed diff between the marks of two frames.
// Enter and Update follow next's order, Exit follows prev's order.
type Join struct {
	Enter  []string
	Update []string
	Exit   []string
}

// JoinKeys diffs prev against next by key.
func JoinKeys(prev, next []string) Join {
	inPrev := lo.Associate(prev, func(k string) (string, struct{}) { return k, struct{}{} })
	inNext := lo.Associate(next, func(k string) (string, struct{}) { return k, struct{}{} })

	j := Join{
		Enter:  []string{},
		Update: []string{},
		Exit:   []string{},
	}
	for _, k := range next {
		if _, ok := inPrev[k]; ok {
			j.Update = append(j.Update, k)
		} else {
			j.Enter = append(j.Enter, k)
		}
	}
	j.Exit = lo.Filter(prev, func(k string, _ int) bool {
		_, ok := inNext[k]
		return !ok
	})
	return j
}
