package content

// Row is one line of the desktop timeline. Rows alternate direction so the
// connecting border snakes down the page; Second is nil when the last row
// holds a single event.
type Row struct {
	Index   int
	First   Event
	Second  *Event
	Forward bool
	Last    bool
}

// Rows pairs the events two per row.
func (t Timeline) Rows() []Row {
	n := (len(t.Events) + 1) / 2
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		row := Row{
			Index:   i,
			First:   t.Events[i*2],
			Forward: i%2 == 0,
			Last:    i == n-1,
		}
		if j := i*2 + 1; j < len(t.Events) {
			e := t.Events[j]
			row.Second = &e
		}
		rows = append(rows, row)
	}
	return rows
}
