// Package recurrence holds the due-date rules for equipment inspections:
// the calculator, the recurrence record and its transitions, the completion
// recorder and the overdue/upcoming/remaining classifier.
//
// All date arithmetic is done on civil.Date values so results never depend on
// time of day, DST or a record's display timezone.
package recurrence
