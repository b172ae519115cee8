// Package retrieval is the embedded SDK for the hybrid retrieval engine.
// It wires the engine in-process on top of a local badger store, so Go
// programs can index and search documents without running the HTTP server.
//
// Basic usage:
//
//	client, err := retrieval.New(ctx, retrieval.WithInMemory())
//	if err != nil { ... }
//	defer client.Close()
//
//	err = client.Save(ctx, retrieval.Document{
//		ID:     "doc-1",
//		Text:   "quarterly financial report",
//		Vector: vec,
//	})
//
//	page, err := client.Search(ctx, retrieval.SearchRequest{
//		Query:  "financial report",
//		Vector: queryVec,
//		Mode:   retrieval.ModeHybrid,
//	})
package retrieval
