// Package store is a client for the hosted PostgREST database that holds
// curated process items and per-agent chat histories.
//
// # Basic Usage
//
//	client := store.NewClient("https://project.supabase.co", "anon-key")
//
//	items, err := client.ListProcessItems(ctx, store.ListOptions{})
//
//	item, err := client.AddProcessItem(ctx, store.ProcessItem{
//	    Title:         "Ночной город",
//	    Content:       "...",
//	    SourceAgentID: "angle",
//	    Type:          store.TypeTopic,
//	})
//
// # Tables
//
// process_items has the columns id, created_at, title, content,
// source_agent_id, type, is_archived, scenario_id and scenario_title. type is
// a Postgres enum; a value the enum does not list is reported as
// *SchemaViolationError.
//
// chat_histories is keyed by agent_id and stores the whole history as one
// JSON column. Saving is an upsert: the last full write wins.
//
// # Consistency
//
// Every request carries no-cache headers so a read issued right after a
// write observes that write. The client keeps no state between calls.
package store
