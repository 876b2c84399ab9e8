package testutil

// CSV fixtures shared by the pipeline, state and HTTP tests.
const (
	// CSVThresholdExample flags T1 and not T2 at threshold 75.
	CSVThresholdExample = "transaction_id,amount\nT1,100\nT2,50"

	// CSVTrustedVendor has a single large Acme row.
	CSVTrustedVendor = "transaction_id,amount,merchant\nT1,9000,Acme"

	// CSVBadAmount has a non-numeric amount cell.
	CSVBadAmount = "transaction_id,amount,merchant\nT3,,Acme"

	// CSVMissingAmount lacks the required amount column.
	CSVMissingAmount = "transaction_id,merchant\nT1,Acme"

	// CSVHeaderOnly has no data rows.
	CSVHeaderOnly = "transaction_id,amount"

	// CSVFull carries every recognized column.
	CSVFull = `transaction_id,date,amount,merchant,category,account_id
T100,2024-03-01,1250.00,Globex,Consulting,ACC-1
T101,2024-03-02,42.10,Acme,Office,ACC-1
T102,2024-03-02,8800,Initech,Hardware,ACC-2
,2024-03-03,15,Hooli,Software,ACC-2`
)
