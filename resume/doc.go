// Package resume rewrites a resume toward a job description.
//
// The Optimizer retrieves the resume chunks most relevant to the job
// description, reports which job description chunks the resume leaves
// uncovered, asks the model for a rewrite and then measures coverage again
// against the rewritten text. Model failures never surface as errors: the
// report falls back to the raw reply or to the original resume.
package resume
