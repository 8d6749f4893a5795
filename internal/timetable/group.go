package timetable

// ScheduleGroup is every schedule entry of one class, in input order.
type ScheduleGroup struct {
	Title string          `json:"title"`
	Slots []ScheduleEntry `json:"slots"`
}

// GroupByTitle partitions entries by ClassTitle. Groups appear in the order
// their title is first seen, so an input sorted by title (or by day within a
// faculty's week) keeps that order.
func GroupByTitle(entries []ScheduleEntry) []ScheduleGroup {
	groups := []ScheduleGroup{}
	index := map[string]int{}
	for _, e := range entries {
		i, ok := index[e.ClassTitle]
		if !ok {
			i = len(groups)
			index[e.ClassTitle] = i
			groups = append(groups, ScheduleGroup{Title: e.ClassTitle})
		}
		groups[i].Slots = append(groups[i].Slots, e)
	}
	return groups
}
