package model

// Job asks a worker to analyse the records of one location.
type Job struct {
	ID       int
	Location string
	Records  []Record
}
