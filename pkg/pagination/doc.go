// Package pagination walks cursor-paginated endpoints.
//
// Cursor pagination is inherently sequential: the cursor for page N+1 is only
// known once page N has been read. Walk therefore issues exactly one fetch per
// cursor, starting with the empty cursor, and stops at the first page that
// reports no next cursor.
//
// Example usage:
//
//	pledges, stats, err := pagination.Walk(ctx, func(ctx context.Context, cursor string) ([]patreon.Resource, string, error) {
//		doc, err := client.FetchPageOfPledges(ctx, patreon.PledgePageRequest{CampaignID: id, Cursor: cursor})
//		if err != nil {
//			return nil, "", err
//		}
//		next, err := patreon.ExtractCursor(doc, patreon.DefaultCursorPath)
//		return doc.Data, next, err
//	})
package pagination
