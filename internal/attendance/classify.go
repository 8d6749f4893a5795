package attendance

// Classify decides the session category and the course actually taught.
// A free period has no actual course; otherwise the selected course is what
// was taught, and it is a swap when it differs from the scheduled one.
func Classify(scheduled, selected string, isFree bool) (Category, *string) {
	if isFree {
		return CategoryFree, nil
	}
	actual := selected
	if selected != scheduled {
		return CategorySwap, &actual
	}
	return CategoryNormal, &actual
}
