// Package faults classifies raw failures from external tools into a closed
// error taxonomy and decides the recovery strategy for each classified
// error. Classification happens exactly once per failure; the rule table
// and the policy are pure data so both are independently testable.
package faults
