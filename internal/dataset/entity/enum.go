package entity

type DatasetType string

const (
	DatasetTypeGeneExpression DatasetType = "gene_expression"
	DatasetTypeMicrobiome     DatasetType = "microbiome"
	DatasetTypeProtein        DatasetType = "protein"
	DatasetTypeMetabolomics   DatasetType = "metabolomics"
	DatasetTypeOther          DatasetType = "other"
)

func (t DatasetType) Valid() bool {
	switch t {
	case DatasetTypeGeneExpression, DatasetTypeMicrobiome, DatasetTypeProtein, DatasetTypeMetabolomics, DatasetTypeOther:
		return true
	default:
		return false
	}
}

type DatasetStatus string

const (
	DatasetStatusProcessing DatasetStatus = "processing"
	DatasetStatusReady      DatasetStatus = "ready"
	DatasetStatusError      DatasetStatus = "error"
)

type AnalysisKind string

const (
	AnalysisBasicStats             AnalysisKind = "basic_stats"
	AnalysisCorrelation            AnalysisKind = "correlation"
	AnalysisDifferentialExpression AnalysisKind = "differential_expression"
	AnalysisClustering             AnalysisKind = "clustering"
)

type AnalysisStatus string

const (
	AnalysisStatusPending AnalysisStatus = "pending"
	AnalysisStatusDone    AnalysisStatus = "done"
	AnalysisStatusFailed  AnalysisStatus = "failed"
)
