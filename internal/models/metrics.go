package models

// Metrics keeps the intermediate values behind each characteristic so a
// result can be inspected after the fact.
type Metrics struct {
	Structure  StructureMetrics  `json:"structure" yaml:"structure"`
	Dispersion DispersionMetrics `json:"dispersion" yaml:"dispersion"`
	Formality  FormalityMetrics  `json:"formality" yaml:"formality"`
	Engagement EngagementMetrics `json:"engagement" yaml:"engagement"`
	Longevity  LongevityMetrics  `json:"longevity" yaml:"longevity"`
}

// StructureMetrics records which connection signals fired.
type StructureMetrics struct {
	CommonProjects     bool `json:"common_projects" yaml:"common_projects"`
	Followers          bool `json:"followers" yaml:"followers"`
	PullReqInteraction bool `json:"pull_req_interaction" yaml:"pull_req_interaction"`

	// connection counts, one per unordered member pair or PR interaction
	CommonProjectConnections int `json:"common_project_connections" yaml:"common_project_connections"`
	FollowConnections        int `json:"follow_connections" yaml:"follow_connections"`
	PullReqConnections       int `json:"pull_req_connections" yaml:"pull_req_connections"`
}

// DispersionMetrics are distances in kilometers.
type DispersionMetrics struct {
	MeanGeographicalDistance     float64    `json:"mean_geographical_distance" yaml:"mean_geographical_distance"`
	VarianceGeographicalDistance float64    `json:"variance_geographical_distance" yaml:"variance_geographical_distance"`
	DistanceQuartiles            [3]float64 `json:"distance_quartiles" yaml:"distance_quartiles"`
	Coordinates                  int        `json:"coordinates" yaml:"coordinates"`
	VincentyFallbacks            int        `json:"vincenty_fallbacks" yaml:"vincenty_fallbacks"`
}

type FormalityMetrics struct {
	MeanMembershipType float64 `json:"mean_membership_type" yaml:"mean_membership_type"`
	Milestones         int     `json:"milestones" yaml:"milestones"`
	Lifetime           int     `json:"lifetime_days" yaml:"lifetime_days"`
	Contributors       int     `json:"contributors" yaml:"contributors"`
	Collaborators      int     `json:"collaborators" yaml:"collaborators"`
}

type EngagementMetrics struct {
	MedianNrPullReqComments                    float64 `json:"median_nr_pull_req_comments" yaml:"median_nr_pull_req_comments"`
	MedianMonthlyPullCommitCommentsDistribution float64 `json:"median_monthly_pull_commit_comments" yaml:"median_monthly_pull_commit_comments"`
	MedianActiveMember                         float64 `json:"median_active_member" yaml:"median_active_member"`
	MedianWatcher                              float64 `json:"median_watcher" yaml:"median_watcher"`
	MedianStargazer                            float64 `json:"median_stargazer" yaml:"median_stargazer"`
	MedianCommitDistribution                   float64 `json:"median_commit_distribution" yaml:"median_commit_distribution"`
	MedianFileCollabDistribution               float64 `json:"median_file_collab_distribution" yaml:"median_file_collab_distribution"`
}

type LongevityMetrics struct {
	MeanCommitterLongevity float64 `json:"mean_committer_longevity" yaml:"mean_committer_longevity"`
	Committers             int     `json:"committers" yaml:"committers"`
}
