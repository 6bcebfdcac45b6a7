package pipeline

// BatchSize is the number of transactions written per batch. Batches run
// sequentially, so a duplicate inside a later batch sees what the earlier
// batches wrote.
const BatchSize = 50
