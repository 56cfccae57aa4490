package usecase

// DefaultIDRetries is how many times an insert is retried with a fresh id
// after a primary key collision.
const DefaultIDRetries = 3
