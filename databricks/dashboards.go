package databricks

import (
	"context"
	"net/http"
	"net/url"
)

const lakeviewPath = "/api/2.0/lakeview/dashboards"

// DashboardSummary is one entry from the lakeview dashboard listing.
type DashboardSummary struct {
	DashboardID string `json:"dashboard_id"`
	DisplayName string `json:"display_name"`
	WarehouseID string `json:"warehouse_id"`
}

// CreateDashboard publishes a serialized Lakeview dashboard definition and
// returns its id.
func (c *Client) CreateDashboard(ctx context.Context, displayName, serialized, parentPath string) (string, error) {
	var resp struct {
		DashboardID string `json:"dashboard_id"`
	}
	err := c.retry.Do(ctx, "create dashboard "+displayName, func() error {
		return c.do(ctx, http.MethodPost, lakeviewPath, nil, map[string]string{
			"display_name":         displayName,
			"warehouse_id":         c.warehouseID,
			"serialized_dashboard": serialized,
			"parent_path":          parentPath,
		}, &resp)
	})
	if err != nil {
		return "", err
	}
	c.logger.Infof("created dashboard %s (%s)", displayName, resp.DashboardID)
	return resp.DashboardID, nil
}

// TrashDashboard deletes a dashboard by id; absence counts as success.
func (c *Client) TrashDashboard(ctx context.Context, dashboardID string) error {
	err := c.retry.Do(ctx, "trash dashboard "+dashboardID, func() error {
		return c.do(ctx, http.MethodDelete, lakeviewPath+"/"+dashboardID, nil, nil, nil)
	})
	if err != nil {
		if IsNotFound(err) {
			c.logger.Infof("dashboard %s doesn't exist", dashboardID)
			return nil
		}
		return err
	}
	c.logger.Infof("trashed dashboard %s", dashboardID)
	return nil
}

// ListDashboards walks the paginated lakeview listing.
func (c *Client) ListDashboards(ctx context.Context) ([]DashboardSummary, error) {
	var all []DashboardSummary
	pageToken := ""
	for {
		query := url.Values{}
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}
		var resp struct {
			Dashboards    []DashboardSummary `json:"dashboards"`
			NextPageToken string             `json:"next_page_token"`
		}
		if err := c.do(ctx, http.MethodGet, lakeviewPath, query, nil, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Dashboards...)
		if resp.NextPageToken == "" {
			return all, nil
		}
		pageToken = resp.NextPageToken
	}
}

// FindDashboardByName returns the id of the dashboard with the given display
// name, or empty when no dashboard matches.
func (c *Client) FindDashboardByName(ctx context.Context, name string) (string, error) {
	dashboards, err := c.ListDashboards(ctx)
	if err != nil {
		return "", err
	}
	for _, d := range dashboards {
		if d.DisplayName == name {
			return d.DashboardID, nil
		}
	}
	return "", nil
}

// DashboardURL builds the user-facing link for a dashboard id.
func (c *Client) DashboardURL(dashboardID string) string {
	return c.host + "/sql/dashboardsv3/" + dashboardID
}
