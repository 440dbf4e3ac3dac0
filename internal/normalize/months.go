package normalize

// Months 月份全称，按日历顺序
var Months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var monthIndex = func() map[string]int {
	m := make(map[string]int, len(Months))
	for i, name := range Months {
		m[name] = i
	}
	return m
}()

// IsMonthLabel 是否为月份全称（区分大小写）
func IsMonthLabel(label string) bool {
	_, ok := monthIndex[label]
	return ok
}

// mostlyMonths 月份类目数 >= max(4, 总数/2) 时按日历排序
func mostlyMonths(categories []string) bool {
	matches := 0
	for _, c := range categories {
		if IsMonthLabel(c) {
			matches++
		}
	}
	return matches >= max(4, len(categories)/2)
}
