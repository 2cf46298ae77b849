// Package policy screens client-submitted records before any expensive work
// is scheduled. Screening is synchronous, side-effect free, and never fails:
// malformed fields are normalised or dropped, and records left empty are
// dropped.
package policy
